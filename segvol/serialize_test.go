package segvol

import (
	"bytes"

	. "github.com/janelia-flyem/go/gocheck"
)

func (s *DataSuite) TestCompression(c *C) {
	data := bytes.Repeat([]byte("segmentation voxels "), 500)
	for _, compress := range []Compression{Uncompressed, Zlib, Snappy, LZ4, Zstd} {
		parsed, err := ParseCompression(compress.String())
		c.Assert(err, IsNil)
		c.Assert(parsed, Equals, compress)

		encoded, err := Compress(data, compress)
		c.Assert(err, IsNil)
		if compress != Uncompressed && len(encoded) >= len(data) {
			c.Errorf("%s compression did not shrink repetitive data: %d bytes\n", compress, len(encoded))
		}
		decoded, err := Uncompress(encoded, compress, len(data))
		c.Assert(err, IsNil)
		c.Assert(bytes.Equal(decoded, data), Equals, true)

		_, err = Uncompress(encoded, compress, len(data)+1)
		c.Assert(err, NotNil)
	}

	_, err := ParseCompression("brotli")
	c.Assert(err, NotNil)
	def, err := ParseCompression("")
	c.Assert(err, IsNil)
	c.Assert(def, Equals, Zstd)
}

func (s *DataSuite) TestChecksum(c *C) {
	a := Checksum([]byte("abc"))
	c.Assert(a, HasLen, 16)
	c.Assert(Checksum([]byte("abc")), Equals, a)
	c.Assert(Checksum([]byte("abd")) == a, Equals, false)
}
