package sites

// Site is a facility shown on the planning map.
type Site struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// Map view used when rendering DefaultSites.
const (
	CenterLatitude  = 35.0
	CenterLongitude = -117.0
	DefaultZoom     = 6
)

// DefaultSites returns the sample schools, hospital and government office.
func DefaultSites() []Site {
	return []Site{
		{Name: "School A", Latitude: 34.0522, Longitude: -118.2437},
		{Name: "School B", Latitude: 36.1699, Longitude: -115.1398},
		{Name: "Hospital A", Latitude: 34.0522, Longitude: -118.2437},
		{Name: "Gov Office", Latitude: 36.1699, Longitude: -115.1398},
	}
}
