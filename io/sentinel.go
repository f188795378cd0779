package io

// Sentinel decorates an Input: when the designated character is fetched,
// it is swallowed and Trigger is called instead of storing it.
type Sentinel struct {
	Input   Input  // Decorated input.
	Char    uint16 // Designated character.
	Trigger func() // Called when Char is fetched.
}

var _ Input = (*Sentinel)(nil)

func (sn *Sentinel) Fetch() (char uint16, ok bool, err error) {
	char, ok, err = sn.Input.Fetch()
	if err != nil || !ok {
		return
	}

	if char == sn.Char {
		if sn.Trigger != nil {
			sn.Trigger()
		}
		ok = false
	}

	return
}
