package segvol

import (
	"github.com/tinylib/msgp/msgp"
)

// volumeBoundsFields is the number of array elements of an encoded VolumeBounds:
// six region coordinates, three spacing and three origin components.
const volumeBoundsFields = 12

// MarshalMsg implements msgp.Marshaler
func (vb VolumeBounds) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, vb.Msgsize())
	o = msgp.AppendArrayHeader(o, volumeBoundsFields)
	for i := 0; i < 3; i++ {
		o = msgp.AppendInt32(o, vb.region.MinPoint[i])
	}
	for i := 0; i < 3; i++ {
		o = msgp.AppendInt32(o, vb.region.MaxPoint[i])
	}
	for i := 0; i < 3; i++ {
		o = msgp.AppendFloat64(o, vb.spacing[i])
	}
	for i := 0; i < 3; i++ {
		o = msgp.AppendFloat64(o, vb.origin[i])
	}
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (vb *VolumeBounds) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var asz uint32
	asz, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return
	}
	if asz != volumeBoundsFields {
		err = msgp.ArrayError{Wanted: volumeBoundsFields, Got: asz}
		return
	}
	for i := 0; i < 3; i++ {
		if vb.region.MinPoint[i], bts, err = msgp.ReadInt32Bytes(bts); err != nil {
			return
		}
	}
	for i := 0; i < 3; i++ {
		if vb.region.MaxPoint[i], bts, err = msgp.ReadInt32Bytes(bts); err != nil {
			return
		}
	}
	for i := 0; i < 3; i++ {
		if vb.spacing[i], bts, err = msgp.ReadFloat64Bytes(bts); err != nil {
			return
		}
	}
	for i := 0; i < 3; i++ {
		if vb.origin[i], bts, err = msgp.ReadFloat64Bytes(bts); err != nil {
			return
		}
	}
	o = bts
	return
}

func (vb VolumeBounds) Msgsize() (s int) {
	s = msgp.ArrayHeaderSize + 6*msgp.Int32Size + 6*msgp.Float64Size
	return
}

// VolumeBoundsList is an ordered list of bounds, e.g., the edited regions of a volume.
type VolumeBoundsList []VolumeBounds

// MarshalMsg implements msgp.Marshaler
func (z VolumeBoundsList) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, z.Msgsize())
	o = msgp.AppendArrayHeader(o, uint32(len(z)))
	for _, vb := range z {
		if o, err = vb.MarshalMsg(o); err != nil {
			return
		}
	}
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (z *VolumeBoundsList) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var asz uint32
	asz, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return
	}
	list := make(VolumeBoundsList, asz)
	for i := range list {
		if bts, err = list[i].UnmarshalMsg(bts); err != nil {
			return
		}
	}
	*z = list
	o = bts
	return
}

func (z VolumeBoundsList) Msgsize() (s int) {
	s = msgp.ArrayHeaderSize
	for _, vb := range z {
		s += vb.Msgsize()
	}
	return
}
