/*
Package datastore groups the data kinds attached to one segmentation and persists them
together.

A segmentation always carries VolumetricData, a sparse block volume.  It may also carry
a stored mesh (MeshData) and derived data such as a MarchingCubesMesh that declares the
kinds it is computed from.  An Output orders its data by those declared dependencies so
sources are recomputed and saved before the data derived from them.

Two save modes are supported:

	SaveFull   every block, the logical bounds, and stored data; prior edit files removed
	SaveEdits  only the regions edited since the last full save plus their list

Load replays saved edits on top of the last full save.
*/
package datastore
