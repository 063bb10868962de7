package model

// FileTree is the JSON payload stored as one blob object per entity: a map
// of file path to file contents, plus the package dependencies the in-browser
// editor needs to boot the project.
type FileTree struct {
	Files        map[string]string `json:"files"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

func (t FileTree) Empty() bool {
	return len(t.Files) == 0
}
