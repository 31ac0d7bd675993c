// internal/bus/open.go
package bus

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/tamzrod/emcon/internal/bus/daliserver"
	"github.com/tamzrod/emcon/internal/bus/modbusgw"
	cfg "github.com/tamzrod/emcon/internal/config"
)

// Open builds a Bus whose transport is chosen by configuration.
// Nothing is dialed until Acquire.
func Open(site, name string, b cfg.BusConfig) (*Bus, error) {
	dial, err := dialer(b)
	if err != nil {
		return nil, fmt.Errorf("bus %s/%s: %w", site, name, err)
	}
	return New(site, name, dial), nil
}

func dialer(b cfg.BusConfig) (DialFunc, error) {
	timeout := time.Duration(b.TimeoutMs) * time.Millisecond
	endpoint := net.JoinHostPort(b.Host, strconv.Itoa(b.Port))

	switch b.Transport {
	case cfg.TransportDaliserver:
		return func(ctx context.Context) (Transport, error) {
			c, err := daliserver.Dial(ctx, daliserver.Config{
				Endpoint: endpoint,
				Timeout:  timeout,
			})
			if err != nil {
				return nil, err
			}
			return c, nil
		}, nil

	case cfg.TransportModbus, cfg.TransportModbusRTU:
		mc := modbusgw.Config{
			UnitID:  b.UnitID,
			Timeout: timeout,
			Forward: modbusgw.DefaultForward,
			Reply:   modbusgw.DefaultReply,
		}
		if b.Transport == cfg.TransportModbus {
			mc.Endpoint = endpoint
		} else {
			mc.SerialPort = b.SerialPort
			mc.BaudRate = b.BaudRate
			mc.DataBits = b.DataBits
			mc.StopBits = b.StopBits
			mc.Parity = b.Parity
		}
		if b.Registers != nil {
			mc.Forward = b.Registers.Forward
			mc.Reply = b.Registers.Reply
		}
		return func(ctx context.Context) (Transport, error) {
			c, err := modbusgw.Dial(ctx, mc)
			if err != nil {
				return nil, err
			}
			return c, nil
		}, nil

	default:
		return nil, fmt.Errorf("unsupported transport %q", b.Transport)
	}
}
