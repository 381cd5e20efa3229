package scrape

import "regexp"

// Address is the prefecture/city/street triple split out of one raw address
// string. It only ever lives inside a Shop record.
type Address struct {
	Prefecture string
	City       string
	Street     string
}

// addressPattern splits a Japanese address. Group 1 is the prefecture: the
// four metropolitan/compound forms are matched literally, the remaining
// prefectures by the N-character + 県 suffix. The group is optional because
// some source addresses omit it. Group 2 consumes minimal text up to the
// first digit run, group 3 takes everything from the first digit on.
var addressPattern = regexp.MustCompile(`^(東京都|北海道|(?:京都|大阪)府|.{2,3}県)?(.+?)(\d.*)`)

// ParseAddress splits raw into its prefecture, city and street parts. No
// normalization or trimming is applied beyond what the match implies.
func ParseAddress(raw string) (Address, error) {
	m := addressPattern.FindStringSubmatch(raw)
	if m == nil {
		return Address{}, &ParseError{Raw: raw}
	}
	return Address{Prefecture: m[1], City: m[2], Street: m[3]}, nil
}
