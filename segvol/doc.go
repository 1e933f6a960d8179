/*
	Package segvol provides types, constants, and functions that have no other dependencies
	and can be used by all packages within segvol.  This includes voxel coordinates,
	physical bounds and their resolution onto voxel grids, dense images and binary masks,
	modification timestamps, compression of voxel payloads, and logging.
*/
package segvol
