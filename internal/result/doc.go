// Package result reads and interrogates solver map files.
//
// # Map Files
//
// A completed simulation leaves a NetCDF map file ("*_map.nc") in the
// project output directory holding face-centred water depth and velocity on
// sigma layers, plus edge-normal velocities. [Open] locates the file under
// the project directory and exposes the mesh extents, output times, and the
// [Faces] and [Edges] readers.
//
// # Coordinates
//
// Horizontal coordinates are metres in the flume frame. Vertical positions
// use either the sigma layer index k, counted from the bed, or the
// elevation z in metres measured down from the free surface; the two relate
// through z = sigma * depth at each face. Timesteps and layers accept
// negative indices counted back from the end, so step -1 is the final
// output time.
//
// # Extraction
//
// Extraction either returns every face ([Faces.ExtractK], [Faces.ExtractZ])
// or samples caller-chosen points by bilinear interpolation between face
// centres ([Faces.ExtractKAt], [Faces.ExtractZAt]). Turbine-relative
// helpers derive their sample locations from a [cases.Case]: the hub point,
// the downstream centreline at half-metre spacing, and the vertical profile
// through the hub.
//
// Requesting an elevation outside the layer-centre range of the water
// column is an error; the Clamped variants substitute the nearest layer
// instead. Points outside the face-centre lattice clamp to the boundary
// centre.
//
// # Reference Data
//
// [Transect] holds measured flume transects loaded from CSV or YAML, and
// [Validate] collects a directory of them in name order, translated to
// domain coordinates through a case's turbine position. The normalisation
// helpers put simulated and measured values in the same frame: origin at
// the hub, lengths over the turbine diameter, velocities over the free
// stream value or expressed as a percentage deficit.
package result
