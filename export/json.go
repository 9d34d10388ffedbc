package export

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"

	"findidentical/types"
)

// identical keeps buckets and groups in result order when marshalled;
// a plain map would sort group ids as strings
type identical struct {
	result *types.Result
}

func (s identical) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for bi, bg := range s.result.Buckets {
		if bi > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(bg.Key))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteString(":{")
		for gi, g := range bg.Groups {
			if gi > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(strconv.Quote(strconv.Itoa(gi)))
			buf.WriteByte(':')
			members := make([]string, len(g))
			for i, ref := range g {
				members[i] = s.result.DisplayPath(ref)
			}
			enc, err := json.Marshal(members)
			if err != nil {
				return nil, err
			}
			buf.Write(enc)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type document struct {
	Identical identical `json:"identical"`
}

// WriteJSON writes {"identical":{"WxHxC":{"0":["dir/a.png","dir/b.png"]}}}
func WriteJSON(w io.Writer, result *types.Result) error {
	data, err := json.Marshal(document{Identical: identical{result: result}})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
