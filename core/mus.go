package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the types persisted in BadgerDB.
// The format is a flat field-by-field encoding; time values are stored
// as Unix microseconds.

var float32SliceMUS = ord.NewSliceSer[float32](raw.Float32)

// IDMUS serializes ID values.
var IDMUS = idMUS{}

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (id ID, n int, err error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) (size int) {
	return varint.Uint64.Size(uint64(id))
}

func (idMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

// FindingMUS serializes Finding values.
var FindingMUS = findingMUS{}

type findingMUS struct{}

func (findingMUS) Marshal(f Finding, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(f.Id), bs)
	n += ord.String.Marshal(f.Period, bs[n:])
	n += ord.String.Marshal(f.Unit, bs[n:])
	n += ord.String.Marshal(f.Project, bs[n:])
	n += ord.String.Marshal(f.Title, bs[n:])
	n += ord.String.Marshal(f.Description, bs[n:])
	n += varint.Int.Marshal(f.Severity, bs[n:])
	n += varint.Int.Marshal(int(f.Kind), bs[n:])
	n += raw.Int64.Marshal(f.InsertedAt.UnixMicro(), bs[n:])
	n += raw.Int64.Marshal(f.UpdatedAt.UnixMicro(), bs[n:])
	return
}

func (findingMUS) Unmarshal(bs []byte) (f Finding, n int, err error) {
	var (
		id         uint64
		kind       int
		insertedAt int64
		updatedAt  int64
		n1         int
	)
	id, n, err = varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	f.Id = ID(id)
	f.Period, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	f.Unit, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	f.Project, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	f.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	f.Description, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	f.Severity, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	kind, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	f.Kind = FindingKind(kind)
	insertedAt, n1, err = raw.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	f.InsertedAt = time.UnixMicro(insertedAt).UTC()
	updatedAt, n1, err = raw.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	f.UpdatedAt = time.UnixMicro(updatedAt).UTC()
	return
}

func (findingMUS) Size(f Finding) (size int) {
	size = varint.Uint64.Size(uint64(f.Id))
	size += ord.String.Size(f.Period)
	size += ord.String.Size(f.Unit)
	size += ord.String.Size(f.Project)
	size += ord.String.Size(f.Title)
	size += ord.String.Size(f.Description)
	size += varint.Int.Size(f.Severity)
	size += varint.Int.Size(int(f.Kind))
	size += raw.Int64.Size(f.InsertedAt.UnixMicro())
	size += raw.Int64.Size(f.UpdatedAt.UnixMicro())
	return
}

func (s findingMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

// EmbeddingVectorMUS serializes EmbeddingVector values.
var EmbeddingVectorMUS = embeddingVectorMUS{}

type embeddingVectorMUS struct{}

func (embeddingVectorMUS) Marshal(v EmbeddingVector, bs []byte) (n int) {
	n = float32SliceMUS.Marshal(v.Vector, bs)
	n += ord.String.Marshal(string(v.Fingerprint), bs[n:])
	n += raw.Int64.Marshal(v.GeneratedAt.UnixMicro(), bs[n:])
	return
}

func (embeddingVectorMUS) Unmarshal(bs []byte) (v EmbeddingVector, n int, err error) {
	var (
		fingerprint string
		generatedAt int64
		n1          int
	)
	v.Vector, n, err = float32SliceMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	fingerprint, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Fingerprint = Fingerprint(fingerprint)
	generatedAt, n1, err = raw.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.GeneratedAt = time.UnixMicro(generatedAt).UTC()
	return
}

func (embeddingVectorMUS) Size(v EmbeddingVector) (size int) {
	size = float32SliceMUS.Size(v.Vector)
	size += ord.String.Size(string(v.Fingerprint))
	size += raw.Int64.Size(v.GeneratedAt.UnixMicro())
	return
}

func (s embeddingVectorMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}
