package util

import (
	"fmt"

	"github.com/jobala/petrocore/storage/disk"
	"github.com/vmihailenco/msgpack"
)

// ToByteSlice marshals obj into a page-sized byte buffer. Every on-disk
// page layout in this module (header, directory, bucket) round-trips
// through this pair rather than a hand-rolled binary.Write layout: the
// teacher's B+Tree pages already use this convention, and the spec's
// design notes (§9) call explicit serialization an acceptable choice.
func ToByteSlice[T any](obj T) ([]byte, error) {
	res := make([]byte, disk.PageSize)

	data, err := msgpack.Marshal(obj)
	if err != nil {
		return nil, err
	}
	if len(data) > disk.PageSize {
		return nil, fmt.Errorf("petrocore: encoded page is %d bytes, exceeds page size %d", len(data), disk.PageSize)
	}
	copy(res, data)

	return res, nil
}

// ToStruct unmarshals a page-sized byte buffer back into T.
func ToStruct[T any](data []byte) (T, error) {
	var res T

	if err := msgpack.Unmarshal(data, &res); err != nil {
		return res, err
	}

	return res, nil
}
