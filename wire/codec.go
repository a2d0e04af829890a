package wire

import (
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/cshekharsharma/replicate/errs"
	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// controlEnvelope is the canonical JSON shape for every text control
// message: a fixed header plus a type-specific body. Field order
// is fixed by this struct's field declaration order (the tags only name
// the keys) so two implementations produce
// byte-identical output for the same logical message.
type controlEnvelope struct {
	ProtocolVersion uint16          `json:"protocol_version"`
	MessageType     string          `json:"message_type"`
	ReplicaID       string          `json:"replica_id"`
	WallTs          int64           `json:"wall_ts"`
	Body            json.RawMessage `json:"body"`
}

// EncodeControl renders a JSON control message (welcome, heartbeat,
// peer_join, peer_leave, presence, ack, binary_ack) with the canonical
// envelope fields.
func EncodeControl(msgType MessageType, replicaID string, wallTs time.Time, body any) ([]byte, error) {
	bodyBytes, err := jsonAPI.Marshal(body)
	if err != nil {
		return nil, errs.Codec("encode control body", err)
	}
	env := controlEnvelope{
		ProtocolVersion: ProtocolVersion,
		MessageType:     msgType.String(),
		ReplicaID:       replicaID,
		WallTs:          wallTs.UnixMilli(),
		Body:            bodyBytes,
	}
	out, err := jsonAPI.Marshal(env)
	if err != nil {
		return nil, errs.Codec("encode control envelope", err)
	}
	if len(out) > MaxMessageSize {
		return nil, errs.Protocol("encode control", errs.ErrMessageTooLarge)
	}
	return out, nil
}

// DecodedControl is a control message after the envelope has been
// unwrapped; Body still needs decoding into the type named by Type.
type DecodedControl struct {
	ProtocolVersion uint16
	Type            MessageType
	ReplicaID       string
	WallTs          time.Time
	Body            json.RawMessage
}

// DecodeControl parses the envelope and leaves Body for the caller to
// unmarshal into the concrete struct matching Type.
func DecodeControl(data []byte) (DecodedControl, error) {
	if len(data) > MaxMessageSize {
		return DecodedControl{}, errs.Protocol("decode control", errs.ErrMessageTooLarge)
	}
	var env controlEnvelope
	if err := jsonAPI.Unmarshal(data, &env); err != nil {
		return DecodedControl{}, errs.Codec("decode control envelope", err)
	}
	return DecodedControl{
		ProtocolVersion: env.ProtocolVersion,
		Type:            parseMessageType(env.MessageType),
		ReplicaID:       env.ReplicaID,
		WallTs:          time.UnixMilli(env.WallTs).UTC(),
		Body:            env.Body,
	}, nil
}

// DecodeBody unmarshals a DecodedControl's Body into dst (a pointer to
// the concrete message struct, e.g. *Heartbeat).
func DecodeBody(body json.RawMessage, dst any) error {
	if err := jsonAPI.Unmarshal(body, dst); err != nil {
		return errs.Codec("decode control body", err)
	}
	return nil
}

func parseMessageType(s string) MessageType {
	switch s {
	case "hello":
		return MessageHello
	case "welcome":
		return MessageWelcome
	case "state_summary":
		return MessageStateSummary
	case "delta":
		return MessageDelta
	case "heartbeat":
		return MessageHeartbeat
	case "peer_join":
		return MessagePeerJoin
	case "peer_leave":
		return MessagePeerLeave
	case "presence":
		return MessagePresence
	case "ack":
		return MessageAck
	case "binary_ack":
		return MessageBinaryAck
	default:
		return MessageType(0xFF)
	}
}

// ──────────────────────────────────────────────────────────────────────
// Compact binary encoding for handshakes (Hello) and sync payloads
// (StateSummary, Delta). Canonical: every field is written in a fixed
// order at a fixed width, length-prefixed, little-endian.
// ──────────────────────────────────────────────────────────────────────

// EncodeHello renders the binary Hello handshake message.
func EncodeHello(h Hello) []byte {
	buf := make([]byte, 0, 3+16)
	buf = append(buf, byte(MessageHello))
	buf = binary.LittleEndian.AppendUint16(buf, h.ProtocolVersion)
	buf = append(buf, h.ReplicaID[:]...)
	return buf
}

// DecodeHello parses a binary Hello message.
func DecodeHello(data []byte) (Hello, error) {
	if len(data) < 1+2+16 || data[0] != byte(MessageHello) {
		return Hello{}, errs.Codec("decode hello", errs.ErrVersionMismatch)
	}
	var h Hello
	h.ProtocolVersion = binary.LittleEndian.Uint16(data[1:3])
	copy(h.ReplicaID[:], data[3:19])
	return h, nil
}

// EncodeStateSummary renders the binary StateSummary message.
func EncodeStateSummary(s StateSummary) ([]byte, error) {
	collectionID := []byte(s.CollectionID)
	buf := make([]byte, 0, 1+4+len(collectionID)+1+4+len(s.VectorSummary))
	buf = append(buf, byte(MessageStateSummary))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(collectionID)))
	buf = append(buf, collectionID...)
	buf = append(buf, byte(s.CrdtType))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s.VectorSummary)))
	buf = append(buf, s.VectorSummary...)
	if len(buf) > MaxMessageSize {
		return nil, errs.Protocol("encode state_summary", errs.ErrMessageTooLarge)
	}
	return buf, nil
}

// DecodeStateSummary parses a binary StateSummary message.
func DecodeStateSummary(data []byte) (StateSummary, error) {
	r := &byteReader{data: data}
	if r.readByte() != byte(MessageStateSummary) {
		return StateSummary{}, errs.Codec("decode state_summary", errs.ErrVersionMismatch)
	}
	collectionID := r.readBlock()
	crdtType := r.readByte()
	vectorSummary := r.readBlock()
	if r.err != nil {
		return StateSummary{}, errs.Codec("decode state_summary", r.err)
	}
	return StateSummary{CollectionID: string(collectionID), CrdtType: CrdtType(crdtType), VectorSummary: vectorSummary}, nil
}

// EncodeDelta renders the binary Delta message.
func EncodeDelta(d Delta) ([]byte, error) {
	collectionID := []byte(d.CollectionID)
	buf := make([]byte, 0, 1+4+len(collectionID)+1+8+16+4+len(d.Body))
	buf = append(buf, byte(MessageDelta))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(collectionID)))
	buf = append(buf, collectionID...)
	buf = append(buf, byte(d.CrdtType))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(d.Timestamp))
	buf = append(buf, d.ReplicaID[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(d.Body)))
	buf = append(buf, d.Body...)
	if len(buf) > MaxMessageSize {
		return nil, errs.Protocol("encode delta", errs.ErrMessageTooLarge)
	}
	return buf, nil
}

// DecodeDelta parses a binary Delta message.
func DecodeDelta(data []byte) (Delta, error) {
	r := &byteReader{data: data}
	if r.readByte() != byte(MessageDelta) {
		return Delta{}, errs.Codec("decode delta", errs.ErrVersionMismatch)
	}
	collectionID := r.readBlock()
	crdtType := r.readByte()
	timestamp := r.readUint64()
	var replicaID [16]byte
	copy(replicaID[:], r.readN(16))
	body := r.readBlock()
	if r.err != nil {
		return Delta{}, errs.Codec("decode delta", r.err)
	}
	return Delta{
		CollectionID: string(collectionID),
		CrdtType:     CrdtType(crdtType),
		Body:         body,
		Timestamp:    int64(timestamp),
		ReplicaID:    replicaID,
	}, nil
}
