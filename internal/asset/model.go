package asset

import "time"

// Asset describes a fungible virtual asset type managed by the wallet system.
type Asset struct {
	ID          int64
	Code        string
	Name        string
	Description string
	Active      bool
	CreatedAt   time.Time
}
