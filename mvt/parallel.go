package mvt

import (
	"fmt"
	"sync"
)

// UnmarshalParallel behaves exactly like Unmarshal but decodes the layers of
// one tile over a pool of worker goroutines. Layers are independent, so the
// result is byte-for-byte identical to sequential decoding: layer order
// follows the buffer regardless of completion order, and on contradiction the
// error of the first failing layer in buffer order is returned.
func UnmarshalParallel(data []byte, workers int) (*Tile, error) {
	if workers < 2 {
		return Unmarshal(data)
	}

	// First pass: locate the layer submessages, skipping everything else.
	type layerBuf struct {
		buf  []byte
		base int
	}
	var bufs []layerBuf
	r := newReader(data)
	for r.remaining() > 0 {
		field, wt, err := r.readTag()
		if err != nil {
			return nil, err
		}
		if field != tileLayerField || wt != wireLengthDelimited {
			if err := r.skip(wt); err != nil {
				return nil, err
			}
			continue
		}
		buf, base, err := r.readBytes()
		if err != nil {
			return nil, err
		}
		bufs = append(bufs, layerBuf{buf: buf, base: base})
	}

	type result struct {
		layer    *Layer
		warnings []string
		err      error
	}
	results := make([]result, len(bufs))
	jobs := make(chan int)
	wg := sync.WaitGroup{}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				layer, warnings, err := decodeLayer(&reader{buf: bufs[i].buf, base: bufs[i].base})
				results[i] = result{layer: layer, warnings: warnings, err: err}
			}
		}()
	}
	for i := range bufs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	tile := &Tile{}
	for _, res := range results {
		if res.err != nil {
			return nil, res.err
		}
		tile.Layers = append(tile.Layers, res.layer)
		for _, w := range res.warnings {
			tile.Warnings = append(tile.Warnings, fmt.Sprintf("layer %q: %s", res.layer.Name, w))
		}
	}
	return tile, nil
}
