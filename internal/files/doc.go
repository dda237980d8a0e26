// Package files discovers raw dataset files and names their canonical
// outputs.
//
//	d := files.NewDiscovery(paths.BaseDir)
//	inputs, err := d.ResolveInputs("data/raw")
//	for _, in := range inputs {
//	    out := files.OutputPath(in.Path, paths.ProcessedDir, len(inputs) > 1)
//	    ...
//	}
package files
