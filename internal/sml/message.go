package sml

import (
	"fmt"

	"powercounter/internal/logging"
)

// Message is any of the decoded SML response bodies this decoder
// understands. Callers type-switch on the concrete type.
type Message interface {
	message()
}

// TimeKind distinguishes the three SML-Time encodings a meter may use.
type TimeKind int

const (
	// TimeSecondsSincePowerOn is a free-running counter, not wall-clock
	// time.
	TimeSecondsSincePowerOn TimeKind = 1
	// TimeUnixTimestamp is seconds since the Unix epoch, optionally
	// carrying a local-offset/status tuple this decoder discards.
	TimeUnixTimestamp TimeKind = 2
)

// Time is a decoded SML-Time value.
type Time struct {
	Kind    TimeKind
	Seconds uint64
}

// OpenResponse is the SML_PublicOpen.Res body (type 0x00000101).
type OpenResponse struct {
	Codepage   string
	ClientID   []byte
	ReqFileID  []byte
	ServerID   []byte
	RefTime    *Time
	SMLVersion uint64
}

func (OpenResponse) message() {}

// CloseResponse is the SML_PublicClose.Res body (type 0x00000201).
type CloseResponse struct {
	GlobalSignature []byte
}

func (CloseResponse) message() {}

// ListEntry is one SML_ListEntry within a GetListResponse.
type ListEntry struct {
	ObjName        string
	Status         *uint64
	ValTime        *Time
	UnitRaw        *uint64
	Scaler         *int64
	Value          Field
	ValueSignature []byte
}

// Unit renders the entry's physical unit, or "" if the unit field was
// OptionalNone.
func (e ListEntry) Unit() string {
	if e.UnitRaw == nil {
		return ""
	}
	return unitName(*e.UnitRaw)
}

// ScaledValue applies Scaler to an Integer or Unsigned Value, returning
// ok=false for any other value kind (e.g. an OctetString register,
// which callers display verbatim instead).
func (e ListEntry) ScaledValue() (float64, bool) {
	var raw int64
	switch e.Value.Kind {
	case KindInteger:
		raw = e.Value.Int
	case KindUnsigned:
		raw = int64(e.Value.Uint)
	default:
		return 0, false
	}
	var scaler int64
	if e.Scaler != nil {
		scaler = *e.Scaler
	}
	return scaledValue(raw, scaler), true
}

// GetListResponse is the SML_GetList.Res body (type 0x00000701).
type GetListResponse struct {
	ClientID       []byte
	ServerID       []byte
	ListName       []byte
	ActSensorTime  *Time
	Entries        []ListEntry
	ListSignature  []byte
	ActGatewayTime *Time
}

func (GetListResponse) message() {}

// rawMessage is the shape-checked, but not yet semantically bound,
// six-element SML_Message envelope.
type rawMessage struct {
	TransactionID []byte
	GroupNo       uint64
	AbortOnError  uint64
	TypeCode      uint64
	BodyFields    []Field
	CRC           uint64
	HasCRC        bool
}

// bindRawMessage checks f against the fixed SML_Message shape —
// [transaction_id, group_no, abort_on_error, message_body, crc16,
// end_of_message] where message_body is itself [type_code, body] — and
// extracts its fields. It reports shape mismatches through sink rather
// than treating them as Go errors: a malformed message is dropped, not
// a program bug.
func bindRawMessage(f Field, sink logging.Sink) (*rawMessage, bool) {
	if f.Kind != KindList || len(f.List) != 6 {
		sink.Error("sml: message envelope is not a 6-element list, dropping")
		return nil, false
	}

	tid, group, abort, body, msgCRC := f.List[0], f.List[1], f.List[2], f.List[3], f.List[4]

	if tid.Kind != KindOctetString {
		sink.Error("sml: message transaction_id is not an OctetString, dropping")
		return nil, false
	}
	if group.Kind != KindUnsigned || abort.Kind != KindUnsigned {
		sink.Error("sml: message group_no/abort_on_error is not Unsigned, dropping")
		return nil, false
	}
	if body.Kind != KindList || len(body.List) != 2 || body.List[0].Kind != KindUnsigned || body.List[1].Kind != KindList {
		sink.Error("sml: message_body is not a [type_code, body] pair, dropping")
		return nil, false
	}

	raw := &rawMessage{
		TransactionID: tid.Octets,
		GroupNo:       group.Uint,
		AbortOnError:  abort.Uint,
		TypeCode:      body.List[0].Uint,
		BodyFields:    body.List[1].List,
	}

	switch {
	case msgCRC.Kind == KindUnsigned:
		raw.CRC = msgCRC.Uint
		raw.HasCRC = true
	case msgCRC.IsOptionalNone():
		raw.HasCRC = false
	default:
		sink.Error("sml: message crc16 is neither Unsigned nor OptionalNone, dropping")
		return nil, false
	}

	return raw, true
}

// bindMessage dispatches a shape-checked rawMessage to its concrete
// Message type by TypeCode. An unrecognized type code is reported and
// skipped: new message types appear in the field whenever meter
// firmware gains features this decoder doesn't know yet.
func bindMessage(raw *rawMessage, sink logging.Sink) (Message, bool) {
	switch raw.TypeCode {
	case 0x00000101:
		return bindOpenResponse(raw.BodyFields, sink)
	case 0x00000201:
		return bindCloseResponse(raw.BodyFields, sink)
	case 0x00000701:
		return bindGetListResponse(raw.BodyFields, sink)
	default:
		sink.Debug("sml: unrecognized message type, skipping", "type", fmt.Sprintf("%#08x", raw.TypeCode))
		return nil, false
	}
}

func bindOpenResponse(fields []Field, sink logging.Sink) (Message, bool) {
	if len(fields) != 6 {
		sink.Error("sml: OpenResponse body has wrong arity, dropping", "got", len(fields))
		return nil, false
	}
	codepageF, clientF, reqF, serverF, timeF, verF := fields[0], fields[1], fields[2], fields[3], fields[4], fields[5]

	resp := &OpenResponse{SMLVersion: 1}

	switch {
	case codepageF.IsOptionalNone():
		resp.Codepage = "iso-8859-15"
	case codepageF.Kind == KindOctetString:
		resp.Codepage = decodeISO885915(codepageF.Octets)
	default:
		sink.Error("sml: OpenResponse codepage is not an OctetString, dropping")
		return nil, false
	}

	if !clientF.IsOptionalNone() {
		if clientF.Kind != KindOctetString {
			sink.Error("sml: OpenResponse client_id is not an OctetString, dropping")
			return nil, false
		}
		resp.ClientID = clientF.Octets
	}

	if reqF.Kind != KindOctetString {
		sink.Error("sml: OpenResponse req_file_id is not an OctetString, dropping")
		return nil, false
	}
	resp.ReqFileID = reqF.Octets

	if serverF.Kind != KindOctetString {
		sink.Error("sml: OpenResponse server_id is not an OctetString, dropping")
		return nil, false
	}
	resp.ServerID = serverF.Octets

	if !timeF.IsOptionalNone() {
		tm, err := convertTime(timeF)
		if err != nil {
			sink.Error("sml: OpenResponse ref_time malformed, dropping", "error", err.Error())
			return nil, false
		}
		resp.RefTime = tm
	}

	if !verF.IsOptionalNone() {
		if verF.Kind != KindUnsigned {
			sink.Error("sml: OpenResponse sml_version is not Unsigned, dropping")
			return nil, false
		}
		resp.SMLVersion = verF.Uint
	}

	return *resp, true
}

func bindCloseResponse(fields []Field, sink logging.Sink) (Message, bool) {
	if len(fields) != 1 {
		sink.Error("sml: CloseResponse body has wrong arity, dropping", "got", len(fields))
		return nil, false
	}
	sigF := fields[0]
	resp := CloseResponse{}
	if !sigF.IsOptionalNone() {
		if sigF.Kind != KindOctetString {
			sink.Error("sml: CloseResponse global_signature is not an OctetString, dropping")
			return nil, false
		}
		resp.GlobalSignature = sigF.Octets
	}
	return resp, true
}

func bindGetListResponse(fields []Field, sink logging.Sink) (Message, bool) {
	if len(fields) != 7 {
		sink.Error("sml: GetListResponse body has wrong arity, dropping", "got", len(fields))
		return nil, false
	}
	clientF, serverF, nameF, sensorTimeF, entriesF, listSigF, gatewayTimeF := fields[0], fields[1], fields[2], fields[3], fields[4], fields[5], fields[6]

	resp := &GetListResponse{}

	if !clientF.IsOptionalNone() {
		if clientF.Kind != KindOctetString {
			sink.Error("sml: GetListResponse client_id is not an OctetString, dropping")
			return nil, false
		}
		resp.ClientID = clientF.Octets
	}

	if serverF.Kind != KindOctetString {
		sink.Error("sml: GetListResponse server_id is not an OctetString, dropping")
		return nil, false
	}
	resp.ServerID = serverF.Octets

	if nameF.Kind != KindOctetString {
		sink.Error("sml: GetListResponse list_name is not an OctetString, dropping")
		return nil, false
	}
	resp.ListName = nameF.Octets

	if !sensorTimeF.IsOptionalNone() {
		tm, err := convertTime(sensorTimeF)
		if err != nil {
			sink.Error("sml: GetListResponse act_sensor_time malformed, dropping", "error", err.Error())
			return nil, false
		}
		resp.ActSensorTime = tm
	}

	if entriesF.Kind != KindList {
		sink.Error("sml: GetListResponse val_list is not a list, dropping")
		return nil, false
	}
	for _, ef := range entriesF.List {
		entry, ok := bindListEntry(ef, sink)
		if !ok {
			continue
		}
		resp.Entries = append(resp.Entries, entry)
	}

	if !listSigF.IsOptionalNone() {
		if listSigF.Kind != KindOctetString {
			sink.Error("sml: GetListResponse list_signature is not an OctetString, dropping")
			return nil, false
		}
		resp.ListSignature = listSigF.Octets
	}

	if !gatewayTimeF.IsOptionalNone() {
		tm, err := convertTime(gatewayTimeF)
		if err != nil {
			sink.Error("sml: GetListResponse act_gateway_time malformed, dropping", "error", err.Error())
			return nil, false
		}
		resp.ActGatewayTime = tm
	}

	return *resp, true
}

func bindListEntry(f Field, sink logging.Sink) (ListEntry, bool) {
	if f.Kind != KindList || len(f.List) != 7 {
		sink.Error("sml: list entry has wrong shape, dropping")
		return ListEntry{}, false
	}
	nameF, statusF, timeF, unitF, scalerF, valueF, sigF := f.List[0], f.List[1], f.List[2], f.List[3], f.List[4], f.List[5], f.List[6]

	if nameF.Kind != KindOctetString {
		sink.Error("sml: list entry obj_name is not an OctetString, dropping")
		return ListEntry{}, false
	}
	if len(nameF.Octets) != 6 {
		sink.Warn("sml: list entry obj_name is not a 6-byte OBIS identifier, rendering as byte-repr", "length", len(nameF.Octets))
	}
	entry := ListEntry{ObjName: obisName(nameF.Octets), Value: valueF}

	if !statusF.IsOptionalNone() {
		if statusF.Kind != KindUnsigned {
			sink.Error("sml: list entry status is not Unsigned, dropping")
			return ListEntry{}, false
		}
		v := statusF.Uint
		entry.Status = &v
	}

	if !timeF.IsOptionalNone() {
		tm, err := convertTime(timeF)
		if err != nil {
			sink.Error("sml: list entry val_time malformed, dropping", "error", err.Error())
			return ListEntry{}, false
		}
		entry.ValTime = tm
	}

	if !unitF.IsOptionalNone() {
		if unitF.Kind != KindUnsigned {
			sink.Error("sml: list entry unit is not Unsigned, dropping")
			return ListEntry{}, false
		}
		v := unitF.Uint
		entry.UnitRaw = &v
	}

	if !scalerF.IsOptionalNone() {
		if scalerF.Kind != KindInteger {
			sink.Error("sml: list entry scaler is not Integer, dropping")
			return ListEntry{}, false
		}
		v := scalerF.Int
		entry.Scaler = &v
	}

	if !sigF.IsOptionalNone() {
		if sigF.Kind != KindOctetString {
			sink.Error("sml: list entry value_signature is not an OctetString, dropping")
			return ListEntry{}, false
		}
		entry.ValueSignature = sigF.Octets
	}

	return entry, true
}

// convertTime decodes an SML-Time choice: [kind, value] where kind 1 is
// seconds-since-power-on (Unsigned) and kind 2 is a Unix timestamp
// (Unsigned); kind 3 nests a [timestamp, local_offset, season_offset]
// tuple. Some meters send a bare Unsigned instead of the wrapping
// 2-list, treated as an unqualified seconds-since-power-on to match
// what real devices put on the wire.
func convertTime(f Field) (*Time, error) {
	if f.Kind == KindUnsigned {
		return &Time{Kind: TimeSecondsSincePowerOn, Seconds: f.Uint}, nil
	}

	if f.Kind != KindList || len(f.List) != 2 || f.List[0].Kind != KindUnsigned {
		return nil, fmt.Errorf("sml: malformed SML-Time choice")
	}

	kind, value := f.List[0].Uint, f.List[1]

	switch kind {
	case 1:
		if value.Kind != KindUnsigned {
			return nil, fmt.Errorf("sml: SML-Time kind 1 value is not Unsigned")
		}
		return &Time{Kind: TimeSecondsSincePowerOn, Seconds: value.Uint}, nil
	case 2:
		if value.Kind != KindUnsigned {
			return nil, fmt.Errorf("sml: SML-Time kind 2 value is not Unsigned")
		}
		return &Time{Kind: TimeUnixTimestamp, Seconds: value.Uint}, nil
	case 3:
		if value.Kind != KindList || len(value.List) != 3 || value.List[0].Kind != KindUnsigned {
			return nil, fmt.Errorf("sml: SML-Time kind 3 value is not a 3-element timestamp tuple")
		}
		return &Time{Kind: TimeUnixTimestamp, Seconds: value.List[0].Uint}, nil
	default:
		return nil, fmt.Errorf("sml: unknown SML-Time kind %d", kind)
	}
}
