package collection

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/cshekharsharma/replicate/crdt"
	"github.com/cshekharsharma/replicate/replicaid"
)

var lwwJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// lwwWire is the JSON-serializable shape of an *crdt.LwwRegister[string]
// snapshot: just enough to reconstruct an equivalent register on the
// receiving side via Set.
type lwwWire struct {
	Value     string      `json:"value"`
	Timestamp crdt.WallTs `json:"timestamp"`
	Writer    string      `json:"writer"`
}

// StringRegisterCodec serializes an *crdt.LwwRegister[string] to JSON
// for the wire and for persistence, the way the control-message bodies
// in wire/message.go are encoded.
func StringRegisterCodec() Codec[*crdt.LwwRegister[string]] {
	return Codec[*crdt.LwwRegister[string]]{
		Encode: func(r *crdt.LwwRegister[string]) ([]byte, error) {
			v, ts := r.Get()
			w := lwwWire{Value: v, Timestamp: ts, Writer: r.ReplicaID().String()}
			return lwwJSON.Marshal(w)
		},
		Decode: func(body []byte) (*crdt.LwwRegister[string], error) {
			var w lwwWire
			if err := lwwJSON.Unmarshal(body, &w); err != nil {
				return nil, err
			}
			writer, err := replicaid.Parse(w.Writer)
			if err != nil {
				return nil, err
			}
			out := crdt.NewLwwRegister[string](writer)
			out.Set(w.Value, w.Timestamp)
			return out, nil
		},
	}
}
