package models

var reviewDiscriminator = Discriminator("account", "MovieAccountState")

// Validate checks rating range and byte lengths.
func (r *MovieReview) Validate() error {
	return validate.Struct(r)
}

// Space is the exact account size needed to hold r.
func (r *MovieReview) Space() int {
	return ReviewBaseSpace + len(r.Title) + len(r.Description)
}

func (r *MovieReview) MarshalBinary() ([]byte, error) {
	w := NewWriter(r.Space()).
		Raw(reviewDiscriminator[:]).
		PublicKey(r.Reviewer).
		Uint8(r.Rating).
		Str(r.Title).
		Str(r.Description)
	return w.Bytes(), nil
}

func (r *MovieReview) UnmarshalBinary(data []byte) error {
	rd := NewReader(data)
	rd.Expect(reviewDiscriminator)
	r.Reviewer = rd.PublicKey()
	r.Rating = rd.Uint8()
	r.Title = rd.Str()
	r.Description = rd.Str()
	return rd.Err()
}

// IsMovieReview reports whether data carries the review discriminator.
func IsMovieReview(data []byte) bool {
	return hasDiscriminator(data, reviewDiscriminator)
}

func hasDiscriminator(data []byte, d [DiscriminatorLength]byte) bool {
	return len(data) >= DiscriminatorLength && [DiscriminatorLength]byte(data[:DiscriminatorLength]) == d
}
