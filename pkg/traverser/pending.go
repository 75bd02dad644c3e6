package traverser

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Ack is the acknowledgement a consumer owes for one emitted file. Exactly
// one of Resolve or Reject should be called; only the first call counts.
type Ack struct {
	path string
	once sync.Once
	done chan struct{}
	err  error
}

func newAck(path string) *Ack {
	return &Ack{path: path, done: make(chan struct{})}
}

// Path returns the canonical path this Ack belongs to.
func (a *Ack) Path() string {
	return a.path
}

// Resolve marks the file as handled.
func (a *Ack) Resolve() {
	a.settle(nil)
}

// Reject marks the file as failed. A nil err is still a rejection.
func (a *Ack) Reject(err error) {
	if err == nil {
		err = errRejected
	}
	a.settle(&RejectedError{Path: a.path, Err: err})
}

// Done is closed once the Ack is settled.
func (a *Ack) Done() <-chan struct{} {
	return a.done
}

// Err returns the rejection, or nil if the Ack resolved or is unsettled.
func (a *Ack) Err() error {
	select {
	case <-a.done:
		return a.err
	default:
		return nil
	}
}

func (a *Ack) settle(err error) {
	a.once.Do(func() {
		a.err = err
		close(a.done)
	})
}

// pendingSet holds outstanding acknowledgements. It is open until Seal;
// after that Add fails with ErrSealed and Wait may be called.
type pendingSet struct {
	mu     sync.Mutex
	acks   []*Ack
	sealed bool
}

func (p *pendingSet) Add(ack *Ack) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sealed {
		return ErrSealed
	}
	p.acks = append(p.acks, ack)
	return nil
}

func (p *pendingSet) Seal() {
	p.mu.Lock()
	p.sealed = true
	p.mu.Unlock()
}

func (p *pendingSet) Sealed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sealed
}

func (p *pendingSet) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.acks)
}

// Wait blocks until every Ack is settled and returns all rejections as a
// *multierror.Error, or nil.
func (p *pendingSet) Wait(ctx context.Context) error {
	p.mu.Lock()
	if !p.sealed {
		p.mu.Unlock()
		return ErrNotSealed
	}
	acks := p.acks
	p.mu.Unlock()

	var merr *multierror.Error
	for _, ack := range acks {
		select {
		case <-ack.Done():
			if err := ack.Err(); err != nil {
				merr = multierror.Append(merr, err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return merr.ErrorOrNil()
}
