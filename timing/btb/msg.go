package btb

import (
	"github.com/sarchlab/akita/v4/sim"
)

// MaxBanks is the largest interleaving factor a Msg can describe.
const MaxBanks = 1 << MaxBankBits

// MsgKind tells what a Msg asks for or answers.
type MsgKind uint8

// Message kinds. Requests travel toward the BTB and the matching
// acknowledgements travel back on the same connection.
const (
	MsgInvalid MsgKind = iota
	MsgRegister
	MsgFetch
	MsgUpdate
	MsgRegisterAck
	MsgFetchRsp
	MsgUpdateAck
)

var msgKindNames = [...]string{
	MsgInvalid:     "Invalid",
	MsgRegister:    "Register",
	MsgFetch:       "Fetch",
	MsgUpdate:      "Update",
	MsgRegisterAck: "RegisterAck",
	MsgFetchRsp:    "FetchRsp",
	MsgUpdateAck:   "UpdateAck",
}

func (k MsgKind) String() string {
	if int(k) < len(msgKindNames) {
		return msgKindNames[k]
	}

	return "Unknown"
}

// IsRequest returns true for the kinds the BTB handles.
func (k MsgKind) IsRequest() bool {
	return k == MsgRegister || k == MsgFetch || k == MsgUpdate
}

// MsgError reports why the BTB could not serve a request.
type MsgError uint8

// Request failures carried in responses.
const (
	MsgErrNone MsgError = iota
	MsgErrNotAllocated
	MsgErrUnknownKind
)

// Msg is the single message type of the BTB. Apart from the immutable ID
// strings, every field is a fixed-size value, so a Msg is copied whole into
// buffers and inbox nodes and never shares state with the sender.
type Msg struct {
	ID    string
	RspTo string
	Kind  MsgKind

	FetchAddress uint32
	Targets      [MaxBanks]uint32
	Executed     [MaxBanks]bool

	Status         Status
	NextFetchBlock uint32
	ValidBits      [MaxBanks]bool
	Err            MsgError
}

// NewRegisterMsg builds a request to register a fetch block. Only the first
// interleaving-factor targets are used by the BTB.
func NewRegisterMsg(fetchAddress uint32, targets []uint32) Msg {
	m := Msg{
		ID:           sim.GetIDGenerator().Generate(),
		Kind:         MsgRegister,
		FetchAddress: fetchAddress,
	}
	copy(m.Targets[:], targets)

	return m
}

// NewFetchMsg builds a lookup request.
func NewFetchMsg(fetchAddress uint32) Msg {
	return Msg{
		ID:           sim.GetIDGenerator().Generate(),
		Kind:         MsgFetch,
		FetchAddress: fetchAddress,
	}
}

// NewUpdateMsg builds a request to train the predictors of a fetch block.
func NewUpdateMsg(fetchAddress uint32, executed []bool) Msg {
	m := Msg{
		ID:           sim.GetIDGenerator().Generate(),
		Kind:         MsgUpdate,
		FetchAddress: fetchAddress,
	}
	copy(m.Executed[:], executed)

	return m
}

// GenerateRsp creates the response skeleton for a request.
func (m Msg) GenerateRsp() Msg {
	rsp := Msg{
		ID:           sim.GetIDGenerator().Generate(),
		RspTo:        m.ID,
		FetchAddress: m.FetchAddress,
	}

	switch m.Kind {
	case MsgRegister:
		rsp.Kind = MsgRegisterAck
	case MsgFetch:
		rsp.Kind = MsgFetchRsp
	case MsgUpdate:
		rsp.Kind = MsgUpdateAck
	default:
		rsp.Kind = MsgInvalid
		rsp.Err = MsgErrUnknownKind
	}

	return rsp
}
