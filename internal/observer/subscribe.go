package observer

// DefaultBuffer is the subscription buffer used when none is requested.
const DefaultBuffer = 16

type subscription struct {
	ch     chan TrackChange
	closed bool
}

// Subscribe returns a channel of track changes and a function that cancels
// the subscription. Delivery never blocks the poller: when the buffer is full
// the oldest pending change is discarded so the newest always arrives.
func (p *Poller) Subscribe(buffer int) (<-chan TrackChange, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	sub := &subscription{ch: make(chan TrackChange, buffer)}

	p.subMu.Lock()
	p.subs = append(p.subs, sub)
	p.subMu.Unlock()

	cancel := func() {
		p.subMu.Lock()
		defer p.subMu.Unlock()
		for i, s := range p.subs {
			if s == sub {
				p.subs = append(p.subs[:i], p.subs[i+1:]...)
				break
			}
		}
		if !sub.closed {
			sub.closed = true
			close(sub.ch)
		}
	}
	return sub.ch, cancel
}

func (p *Poller) publish(change TrackChange) {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	for _, sub := range p.subs {
		for {
			select {
			case sub.ch <- change:
			default:
				select {
				case <-sub.ch:
					p.dropped.Add(1)
				default:
				}
				continue
			}
			break
		}
	}
}

func (p *Poller) closeSubscribers() {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	for _, sub := range p.subs {
		if !sub.closed {
			sub.closed = true
			close(sub.ch)
		}
	}
	p.subs = nil
}
