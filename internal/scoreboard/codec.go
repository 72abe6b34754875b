package scoreboard

import (
	"encoding/json"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
	"github.com/ugorji/go/codec"

	"github.com/ctf-scoreboard/internal/domain"
)

// msgpackHandle is shared by every encoder and decoder. Handles are safe for
// concurrent use once configured.
var msgpackHandle = newMsgpackHandle()

func newMsgpackHandle() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.WriteExt = true
	h.StructToArray = true
	h.Canonical = true
	return h
}

// Encode serializes a scoreboard into the compact cached form: msgpack,
// compressed with snappy. Equal scoreboards produce identical bytes.
func Encode(sb *domain.Scoreboard) ([]byte, error) {
	var raw []byte
	if err := codec.NewEncoderBytes(&raw, msgpackHandle).Encode(sb); err != nil {
		return nil, errors.Wrap(err, "encoding scoreboard")
	}
	return snappy.Encode(nil, raw), nil
}

// Decode reverses Encode
func Decode(data []byte) (*domain.Scoreboard, error) {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, errors.Wrap(err, "decompressing scoreboard")
	}

	var sb domain.Scoreboard
	if err := codec.NewDecoderBytes(raw, msgpackHandle).Decode(&sb); err != nil {
		return nil, errors.Wrap(err, "decoding scoreboard")
	}
	return &sb, nil
}

// MarshalJSON renders the scoreboard the way the HTTP API returns it
func MarshalJSON(sb *domain.Scoreboard) ([]byte, error) {
	data, err := json.Marshal(sb)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling scoreboard")
	}
	return data, nil
}

// UnmarshalJSON reverses MarshalJSON
func UnmarshalJSON(data []byte) (*domain.Scoreboard, error) {
	var sb domain.Scoreboard
	if err := json.Unmarshal(data, &sb); err != nil {
		return nil, errors.Wrap(err, "unmarshaling scoreboard")
	}
	return &sb, nil
}
