package domain

import "checkers-client/internal/wire"

// Params holds the module parameters. The module currently defines none.
type Params struct{}

// Marshal encodes p.
func (p Params) Marshal() []byte {
	return wire.NewWriter().Bytes()
}

// Unmarshal decodes b into p, skipping every field.
func (p *Params) Unmarshal(b []byte) error {
	r := wire.NewReader(b)
	for !r.Done() {
		num, typ, err := r.Next()
		if err != nil {
			return err
		}
		if err := r.Skip(num, typ); err != nil {
			return err
		}
	}
	*p = Params{}
	return nil
}

// Plain returns the plain-object form of p.
func (p Params) Plain() wire.Plain {
	return wire.Plain{}
}

// FromPlain sets p from a plain object.
func (p *Params) FromPlain(wire.Plain) error {
	*p = Params{}
	return nil
}
