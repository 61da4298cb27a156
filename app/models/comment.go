package models

var (
	counterDiscriminator = Discriminator("account", "MovieCommentCounter")
	commentDiscriminator = Discriminator("account", "MovieComment")
)

// Validate checks the comment text length.
func (c *MovieComment) Validate() error {
	return validate.Struct(c)
}

func (c *MovieComment) Space() int {
	return CommentBaseSpace + len(c.Comment)
}

func (c *MovieComment) MarshalBinary() ([]byte, error) {
	w := NewWriter(c.Space()).
		Raw(commentDiscriminator[:]).
		PublicKey(c.Review).
		PublicKey(c.Commenter).
		Str(c.Comment).
		Uint64(c.Count)
	return w.Bytes(), nil
}

func (c *MovieComment) UnmarshalBinary(data []byte) error {
	rd := NewReader(data)
	rd.Expect(commentDiscriminator)
	c.Review = rd.PublicKey()
	c.Commenter = rd.PublicKey()
	c.Comment = rd.Str()
	c.Count = rd.Uint64()
	return rd.Err()
}

func (c *MovieCommentCounter) MarshalBinary() ([]byte, error) {
	w := NewWriter(CounterSpace).
		Raw(counterDiscriminator[:]).
		Uint64(c.Counter)
	return w.Bytes(), nil
}

func (c *MovieCommentCounter) UnmarshalBinary(data []byte) error {
	rd := NewReader(data)
	rd.Expect(counterDiscriminator)
	c.Counter = rd.Uint64()
	return rd.Err()
}
