package util

import (
	"fmt"
	"os"
	"syscall"
)

// FileInfo identifies a file by inode so that a replaced file is not
// mistaken for one that grew.
type FileInfo struct {
	ModTime int64  // Last modification time of the file
	Size    int64  // File size in bytes
	Inode   uint64 // Inode number (unique file identifier on Unix-like systems)
}

// NewFileInfo extracts the identity of an already stat'ed file.
func NewFileInfo(stat os.FileInfo) (*FileInfo, error) {
	sysStat, ok := stat.Sys().(*syscall.Stat_t)
	if !ok {
		return nil, fmt.Errorf("failed to get file system information: %s", stat.Name())
	}
	return &FileInfo{
		ModTime: stat.ModTime().Unix(),
		Size:    stat.Size(),
		Inode:   sysStat.Ino,
	}, nil
}

// SameFile reports whether both infos describe the same inode.
func (fi *FileInfo) SameFile(other *FileInfo) bool {
	return fi != nil && other != nil && fi.Inode == other.Inode
}
