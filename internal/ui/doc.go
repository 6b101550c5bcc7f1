// Package ui provides the interactive receiver picker for the sender CLI.
//
// The picker runs a short discovery scan with a spinner, then shows the
// discovered receivers as a filterable list. Enter selects a receiver,
// r rescans, q quits without selecting.
//
//	device, err := ui.PickDevice(10 * time.Second)
//	if err != nil { ... }
//	if device == nil {
//	    // user quit without choosing
//	}
package ui
