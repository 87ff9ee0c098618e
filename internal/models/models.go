package models

import "time"

type NodeType int16

const (
	NodeTypeDir  NodeType = 0 // VTFS_NODE_DIR
	NodeTypeFile NodeType = 1 // VTFS_NODE_FILE
)

func (t NodeType) String() string {
	switch t {
	case NodeTypeDir:
		return "dir"
	case NodeTypeFile:
		return "file"
	}
	return "unknown"
}

// Attr is what GetAttr reports for a single entry.
type Attr struct {
	Ino   int64     `json:"ino"`
	Type  NodeType  `json:"type"`
	Mode  uint32    `json:"mode"` // S_IFDIR/S_IFREG | permission bits
	Size  int64     `json:"size"`
	Nlink uint32    `json:"nlink"`
	Atime time.Time `json:"atime"`
	Mtime time.Time `json:"mtime"`
}

type Dirent struct {
	Name string   `json:"name"`
	Ino  int64    `json:"ino"`
	Type NodeType `json:"type"`
}

type TimeSpecKind int8

const (
	TimeSet  TimeSpecKind = iota // use TimeSpec.Time
	TimeNow                      // current time of the call
	TimeOmit                     // leave unchanged
)

// TimeSpec is a timestamp update request: an explicit instant, "now" or "omit".
type TimeSpec struct {
	Kind TimeSpecKind
	Time time.Time
}

func TimeAt(t time.Time) TimeSpec {
	return TimeSpec{Kind: TimeSet, Time: t}
}

func TimeNowSpec() TimeSpec {
	return TimeSpec{Kind: TimeNow}
}

func TimeOmitSpec() TimeSpec {
	return TimeSpec{Kind: TimeOmit}
}
