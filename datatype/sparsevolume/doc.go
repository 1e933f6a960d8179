/*
	Package sparsevolume implements a sparse block-based voxel store for segmentations.

	A Volume keeps only the fixed-size cubic blocks of its voxel grid that hold
	non-background voxels.  Blocks are allocated lazily by draws and freed as soon as
	they become entirely background again.  Every mutation records the region it touched
	in an edited-region list and advances the volume's modification timestamp, which
	derived data such as meshes compare against to decide when to recompute.

	Volumes persist as numbered MetaImage-compatible block files (a .mhd header and a
	.raw payload per block) written to any storage.Store.  Edited regions can be saved
	separately so only the changes since the last full save need to be written.
*/
package sparsevolume
