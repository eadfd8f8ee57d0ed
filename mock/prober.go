package mock

import "github.com/nlitsme/wikiexport"

var _ wikiexport.EngineProber = (*EngineProber)(nil)

// EngineProber is a mock implementation of wikiexport.EngineProber.
type EngineProber struct {
	ProbeFn func(html string) wikiexport.EngineInfo
}

func (p *EngineProber) Probe(html string) wikiexport.EngineInfo {
	return p.ProbeFn(html)
}
