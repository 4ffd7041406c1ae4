package model

// CreationInfo is a nested value, never written to its own table: every
// attribute it declares gets flattened into its parent's row under a
// "creationInfo_" prefix.
type CreationInfo struct {
	AgencyID     *string
	AuthorID     *string
	CreationTime *Time
	ModifyTime   *Time
}

func (c *CreationInfo) ClassName() string { return "CreationInfo" }

func (c *CreationInfo) Serialize(a Archiver) {
	a.OptString("agencyID", &c.AgencyID, NoHints)
	a.OptString("author", &c.AuthorID, NoHints)
	a.OptTime("creationTime", &c.CreationTime, SplitTime)
	a.OptTime("modificationTime", &c.ModifyTime, SplitTime)
}
