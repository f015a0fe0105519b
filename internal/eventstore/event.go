package eventstore

import "time"

// Record is the stored shape of an event. The typed audit events embed it
// and add their decoded fields.
type Record struct {
	Seq  int64 // assigned by the store on append
	Run  string
	Kind string
	At   time.Time
	Data []byte
	Meta map[string]string
}

func (r *Record) ID() int64                   { return r.Seq }
func (r *Record) RunID() string               { return r.Run }
func (r *Record) Type() string                { return r.Kind }
func (r *Record) Timestamp() time.Time        { return r.At }
func (r *Record) Payload() []byte             { return r.Data }
func (r *Record) Metadata() map[string]string { return r.Meta }
