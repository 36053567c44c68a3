package asartype

// Integrity records the digests used to verify one file's content.
type Integrity struct {
	// Algorithm names the digest algorithm. Only "SHA256" is defined.
	Algorithm string `json:"algorithm"`

	// Hash is the hex digest of the whole file content.
	Hash string `json:"hash"`

	// BlockSize is the number of content bytes covered by each block digest.
	BlockSize uint32 `json:"blockSize"`

	// Blocks holds one hex digest per block, in stream order.
	Blocks []string `json:"blocks"`
}
