package pir

import "errors"

var (
	// ErrInvalidParameter is returned for unsupported or unsafe encryption
	// parameters and for inputs that do not fit them.
	ErrInvalidParameter = errors.New("invalid parameter")

	ErrKeyGeneration = errors.New("key generation failed")

	// ErrIndexOutOfRange is returned when a queried index or coordinate lies
	// outside the database.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrDecryption is returned when a response cannot be decrypted into a
	// well-formed record, e.g. because it was decrypted with the wrong key.
	ErrDecryption = errors.New("decryption failed")

	ErrSerialization = errors.New("malformed serialized data")
)
