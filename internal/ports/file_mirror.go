package ports

// FileMirrorPort is the filesystem surface the change synchronizer needs.
// Remove deletes a file or a whole tree and succeeds when nothing is there.
type FileMirrorPort interface {
	Exists(path string) (bool, error)
	IsDir(path string) (bool, error)
	EnsureDir(path string) error
	CopyFile(src string, dst string) error
	CopyTree(src string, dst string) error
	Remove(path string) error
}
