//go:build !darwin

package secretstore

// NewDefault returns the platform store. Without a system keychain binding
// this is a FileStore in dir, or in DefaultDir(service) when dir is empty.
func NewDefault(service, dir string) (Store, error) {
	if dir == "" {
		d, err := DefaultDir(service)
		if err != nil {
			return nil, err
		}
		dir = d
	}
	return NewFileStore(dir)
}
