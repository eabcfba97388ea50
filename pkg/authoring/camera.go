package authoring

// DefaultCameraName is the camera picked when no camera is requested by name
const DefaultCameraName = "default"

// Camera returns the camera with the given name.
// An empty or unmatched name falls back to the camera named "default",
// then to the first camera. It returns nil only when the scene has no cameras.
func (s *Scene) Camera(name string) *Camera {
	if len(s.Cameras) == 0 {
		return nil
	}
	if name != "" {
		for _, c := range s.Cameras {
			if c.Name == name {
				return c
			}
		}
	}
	for _, c := range s.Cameras {
		if c.Name == DefaultCameraName {
			return c
		}
	}
	return s.Cameras[0]
}
