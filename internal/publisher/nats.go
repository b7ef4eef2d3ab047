package publisher

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

type NATSPublisher struct {
	nc          *nats.Conn
	prefix      string
	logSubjects bool
	metrics     PublisherMetrics
}

type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	PublishObserve(d time.Duration)
	NATSSetConnected(connected bool)
	ControlInc(kind string)
}

func NewNATSPublisher(url, prefix string, logSubjects bool, m PublisherMetrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("journey-simulator"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			log.Printf("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats closed")
		}),
	)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	return &NATSPublisher{nc: nc, prefix: prefix, logSubjects: logSubjects, metrics: m}, nil
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		p.nc.Close()
	}
}

func (p *NATSPublisher) PublishStatus(msg StatusMessage) error {
	return p.publish(StatusSubject(p.prefix, msg.RunID), msg)
}

func (p *NATSPublisher) PublishArrival(msg ArrivalMessage) error {
	return p.publish(ArrivalSubject(p.prefix, msg.RunID), msg)
}

func (p *NATSPublisher) publish(subject string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if p.logSubjects {
		log.Printf("nats publish subject=%s", subject)
	}
	start := time.Now()
	err = p.nc.Publish(subject, b)
	if p.metrics != nil {
		p.metrics.PublishObserve(time.Since(start))
		if err != nil {
			p.metrics.NATSPublishErrInc()
		} else {
			p.metrics.NATSPublishedInc()
		}
	}
	return err
}

// SubscribeControl forwards valid control commands to out. It never blocks
// the NATS callback: a command arriving while out is full is dropped.
// Requests with a reply subject get "ok" or the rejection reason.
func (p *NATSPublisher) SubscribeControl(out chan<- ControlCommand) error {
	_, err := p.nc.Subscribe(ControlSubject(p.prefix), func(m *nats.Msg) {
		reply := "ok"
		cmd, err := DecodeControl(m.Data)
		switch {
		case err != nil:
			log.Printf("control rejected: %v", err)
			reply = err.Error()
			p.countControl("invalid")
		default:
			select {
			case out <- cmd:
				p.countControl(cmd.Type)
			default:
				log.Printf("control %s dropped: runner busy", cmd.Type)
				reply = "busy"
				p.countControl("dropped")
			}
		}
		if m.Reply != "" {
			_ = m.Respond([]byte(reply))
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", ControlSubject(p.prefix), err)
	}
	return nil
}

func (p *NATSPublisher) countControl(kind string) {
	if p.metrics != nil {
		p.metrics.ControlInc(kind)
	}
}

func StatusSubject(prefix, runID string) string {
	return fmt.Sprintf("%s.status.%s", prefix, subjectToken(runID))
}

func ArrivalSubject(prefix, runID string) string {
	return fmt.Sprintf("%s.arrival.%s", prefix, subjectToken(runID))
}

func ControlSubject(prefix string) string { return prefix + ".control" }

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or trailing '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
