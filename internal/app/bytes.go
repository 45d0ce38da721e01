package app

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/tturner/simbridge/internal/config"
	relayerr "github.com/tturner/simbridge/internal/errors"
	"github.com/tturner/simbridge/internal/family"
	"github.com/tturner/simbridge/internal/pdu"
)

// EmitBytesOptions selects the sample PDU to render.
type EmitBytesOptions struct {
	Type     string
	Family   string
	Exercise int
	Now      time.Time
	Out      io.Writer
}

// RunEmitBytes writes the hex encoding of a sample PDU.
func RunEmitBytes(opts EmitBytesOptions) error {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Exercise < 0 || opts.Exercise > 255 {
		return fmt.Errorf("%w: exercise %d out of range", relayerr.ErrConfiguration, opts.Exercise)
	}

	typ, err := config.ParsePDUType(opts.Type)
	if err != nil {
		return err
	}
	fam, err := family.Lookup(opts.Family, family.Limits{})
	if err != nil {
		return err
	}
	p, err := pdu.Sample(typ, uint8(opts.Exercise), opts.Now)
	if err != nil {
		return err
	}
	b, err := fam.Encode(p)
	if err != nil {
		return fmt.Errorf("encode %s: %w", typ, err)
	}
	fmt.Fprintln(out, hex.EncodeToString(b))
	return nil
}

// DecodeBytesOptions carries a hex datagram to decode.
type DecodeBytesOptions struct {
	Hex    string
	Family string
	Out    io.Writer
}

// RunDecodeBytes decodes a datagram and prints every PDU in it. PDUs that
// fail to decode are reported and skipped; the command fails only if
// nothing decoded.
func RunDecodeBytes(opts DecodeBytesOptions) error {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	cleaned := strings.NewReplacer(" ", "", "\n", "", "\t", "", ":", "").Replace(opts.Hex)
	cleaned = strings.TrimPrefix(cleaned, "0x")
	data, err := hex.DecodeString(cleaned)
	if err != nil {
		return fmt.Errorf("%w: parse hex: %w", relayerr.ErrConfiguration, err)
	}
	fam, err := family.Lookup(opts.Family, family.Limits{})
	if err != nil {
		return err
	}

	pdus, errs := fam.DecodeAll(data)
	for i, p := range pdus {
		fmt.Fprintf(out, "PDU %d: %s exercise=%d family=%s length=%d status=%s\n",
			i, p.Header.Type, p.Header.Exercise, pdu.Families.NameOf(int(p.Header.Family)),
			p.Header.Length, pdu.StatusFlags.Names(p.Header.Status))
		describeBody(out, p.Body)
	}
	for _, e := range errs {
		fmt.Fprintf(out, "skipped: %v\n", e)
	}
	if len(pdus) == 0 && len(errs) > 0 {
		return fmt.Errorf("no PDU decoded from %d bytes: %w", len(data), errs[0])
	}
	return nil
}

func describeBody(out io.Writer, body pdu.Body) {
	switch b := body.(type) {
	case *pdu.EntityState:
		fmt.Fprintf(out, "  entity %d:%d:%d force=%s kind=%s marking=%q\n",
			b.EntityID.Site, b.EntityID.Application, b.EntityID.Entity,
			pdu.Forces.NameOf(int(b.ForceID)), pdu.EntityKinds.NameOf(int(b.EntityType.Kind)), b.Marking.String())
		fmt.Fprintf(out, "  location (%.2f, %.2f, %.2f)\n", b.Location.X, b.Location.Y, b.Location.Z)
	case *pdu.Fire:
		fmt.Fprintf(out, "  firing %d:%d:%d target %d:%d:%d event %d range %.1f\n",
			b.FiringEntity.Site, b.FiringEntity.Application, b.FiringEntity.Entity,
			b.TargetEntity.Site, b.TargetEntity.Application, b.TargetEntity.Entity,
			b.EventID.Event, b.Range)
	case *pdu.Detonation:
		fmt.Fprintf(out, "  firing %d:%d:%d event %d result=%s\n",
			b.FiringEntity.Site, b.FiringEntity.Application, b.FiringEntity.Entity,
			b.EventID.Event, pdu.DetonationResults.NameOf(int(b.Result)))
	case *pdu.EnvironmentalProcess:
		active := pdu.WeatherRecords.NameOf(int(pdu.WeatherNone))
		if b.Weather != nil {
			d, _ := b.Weather.Active()
			active = pdu.WeatherRecords.NameOf(d)
		}
		fmt.Fprintf(out, "  process %d:%d:%d sequence %d weather=%s\n",
			b.ProcessID.Site, b.ProcessID.Application, b.ProcessID.Entity, b.SequenceNumber, active)
	}
}
