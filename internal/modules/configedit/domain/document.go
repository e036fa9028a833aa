package domain

// Document is one loaded config file. Structured documents are edited through
// Flat; opaque ones through Raw.
type Document struct {
	Path       string
	Raw        string
	Structured bool
	Flat       FlatDocument
}

// ParseDocument classifies raw as structured when it is a JSON object.
// Anything else, including arrays and invalid JSON, is opaque.
func ParseDocument(path, raw string) Document {
	doc := Document{Path: path, Raw: raw}
	obj, err := DecodeObject([]byte(raw))
	if err != nil {
		return doc
	}
	doc.Structured = true
	doc.Flat = Flatten(obj)
	return doc
}

// Render produces the bytes to write back.
func (d Document) Render() (string, error) {
	if !d.Structured {
		return d.Raw, nil
	}
	out, err := Encode(Unflatten(d.Flat))
	if err != nil {
		return "", err
	}
	return string(out), nil
}
