package transport

// Constants for default server configuration.
const (
	// DefaultServerPort is the default port the development backend listens on.
	DefaultServerPort = ":5000"
	// DefaultServerURL is the default base URL of the listing API.
	DefaultServerURL = "http://localhost:5000/api"
)

// API paths, relative to the base URL.
const (
	LoginPath   = "/auth/login"
	VehiclePath = "/vehicle"
	PingPath    = "/ping"
)

// Client-side routes.
const (
	RouteLanding           = "/"
	RouteLogin             = "/login"
	RouteVehicleSubmission = "/vehicleSubmission"
)
