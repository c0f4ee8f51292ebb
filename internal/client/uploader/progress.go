package uploader

import "io"

// progressReader counts bytes as they are read and reports the running total.
type progressReader struct {
	r      io.Reader
	total  int64
	report func(total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.total += int64(n)
		p.report(p.total)
	}
	return n, err
}
