package spawn

import (
	"encoding/base64"
	"encoding/json"

	nserrors "nsctl/errors"
	"nsctl/mount"
)

// wireRequest is the subset of a normalized request the intermediate and
// grandchild generations need after re-exec; it travels as a single
// base64-encoded JSON argv element, since the generations share no
// memory with the parent once re-exec'd.
type wireRequest struct {
	Flags       uintptr      `json:"flags"`
	HasMount    bool         `json:"has_mount"`
	HasPid      bool         `json:"has_pid"`
	Propagation mount.Preset `json:"propagation"`
	Mountproc   bool         `json:"mountproc"`
	Mountpoint  string       `json:"mountpoint"`
	NscmdArgv   []string     `json:"nscmd_argv"`
	HelperInit  string       `json:"helper_init"`
}

func (n *normalized) toWire() wireRequest {
	return wireRequest{
		Flags:       n.flags,
		HasMount:    n.hasMount,
		HasPid:      n.hasPid,
		Propagation: n.propagation,
		Mountproc:   n.mountproc,
		Mountpoint:  n.mountpoint,
		NscmdArgv:   n.nscmdArgv,
		HelperInit:  n.helperInit,
	}
}

func encodeWire(w wireRequest) (string, error) {
	raw, err := json.Marshal(w)
	if err != nil {
		return "", nserrors.WrapWithDetail(err, nserrors.ErrSpawnSyncFailed, "spawn", "encode wire request")
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func decodeWire(s string) (wireRequest, error) {
	var w wireRequest
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return w, nserrors.WrapWithDetail(err, nserrors.ErrSpawnSyncFailed, "spawn", "decode wire request")
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return w, nserrors.WrapWithDetail(err, nserrors.ErrSpawnSyncFailed, "spawn", "unmarshal wire request")
	}
	return w, nil
}
