package filter

import (
	"fmt"

	"github.com/robert-malhotra/h5util/internal/message"
)

// Pipeline is the decode side of a dataset's filter pipeline.
type Pipeline struct {
	filters []Filter
	// stage holds each filter's position in the pipeline message, which is
	// what filter mask bits refer to.
	stage []int
}

// NewPipeline builds the pipeline for fp, which may be nil.
func NewPipeline(fp *message.FilterPipeline) (*Pipeline, error) {
	p := &Pipeline{}
	if fp == nil {
		return p, nil
	}
	for i, info := range fp.Filters {
		f, err := New(info)
		if err != nil {
			return nil, err
		}
		if f != nil {
			p.filters = append(p.filters, f)
			p.stage = append(p.stage, i)
		}
	}
	return p, nil
}

// Decode undoes the pipeline on one chunk. Bit i of mask skips stage i.
func (p *Pipeline) Decode(input []byte, mask uint32) ([]byte, error) {
	data := input
	for i := len(p.filters) - 1; i >= 0; i-- {
		if mask&(1<<uint(p.stage[i])) != 0 {
			continue
		}
		var err error
		if data, err = p.filters[i].Decode(data); err != nil {
			return nil, fmt.Errorf("filter %d: %w", p.filters[i].ID(), err)
		}
	}
	return data, nil
}

// Empty reports whether the pipeline does nothing.
func (p *Pipeline) Empty() bool { return len(p.filters) == 0 }
