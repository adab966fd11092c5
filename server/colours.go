package server

const (
	// Standard colors
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	blue   = "\033[34m"
	gray   = "\033[90m"

	resetColor = "\033[0m"
)

// methodColors maps HTTP methods to terminal colors for route logging
var methodColors = map[string]string{
	"GET":    green,
	"POST":   blue,
	"PUT":    yellow,
	"DELETE": red,
}
