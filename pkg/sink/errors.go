/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: errors.go
Description: Sink errors.
*/

package sink

import "errors"

// ErrClosed is returned when writing to a closed sink
var ErrClosed = errors.New("sink is closed")
