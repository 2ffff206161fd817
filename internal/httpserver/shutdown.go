package httpserver

import "time"

// ShutdownTimeout bounds how long in-flight requests may drain after a
// termination signal.
var ShutdownTimeout = 15 * time.Second
