package types

// Viewer is the identity a request runs as. The zero value is anonymous.
type Viewer struct {
	UserID uint
}

// Anonymous is the viewer for requests without credentials.
var Anonymous = Viewer{}

func NewViewer(userID uint) Viewer {
	return Viewer{UserID: userID}
}

func (v Viewer) Authenticated() bool {
	return v.UserID != 0
}
