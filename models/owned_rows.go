package models

// Accessors used when reconciling owned collections by identity.

func (p *Participant) GetID() string { return p.ID }
func (p *Participant) SetOwnerID(id string) { p.CaseID = id }
func (p *Participant) SetPosition(i int) { p.SortOrder = i }

func (d *Driver) GetID() string { return d.ID }
func (d *Driver) SetOwnerID(id string) { d.ParticipantID = id }
func (d *Driver) SetPosition(i int) { d.SortOrder = i }

func (d *Damage) GetID() string { return d.ID }
func (d *Damage) SetOwnerID(id string) { d.CaseID = id }
func (d *Damage) SetPosition(i int) { d.SortOrder = i }

func (d *Decision) GetID() string { return d.ID }
func (d *Decision) SetOwnerID(id string) { d.CaseID = id }
func (d *Decision) SetPosition(i int) { d.SortOrder = i }

func (a *Appeal) GetID() string { return a.ID }
func (a *Appeal) SetOwnerID(id string) { a.CaseID = id }
func (a *Appeal) SetPosition(i int) { a.SortOrder = i }

func (cc *ClientClaim) GetID() string { return cc.ID }
func (cc *ClientClaim) SetOwnerID(id string) { cc.CaseID = id }
func (cc *ClientClaim) SetPosition(i int) { cc.SortOrder = i }

func (r *Recourse) GetID() string { return r.ID }
func (r *Recourse) SetOwnerID(id string) { r.CaseID = id }
func (r *Recourse) SetPosition(i int) { r.SortOrder = i }

func (s *Settlement) GetID() string { return s.ID }
func (s *Settlement) SetOwnerID(id string) { s.CaseID = id }
func (s *Settlement) SetPosition(i int) { s.SortOrder = i }

func (n *CaseNote) GetID() string { return n.ID }
func (n *CaseNote) SetOwnerID(id string) { n.CaseID = id }
func (n *CaseNote) SetPosition(i int) { n.SortOrder = i }

func (d *CaseDocument) GetID() string { return d.ID }
func (d *CaseDocument) SetOwnerID(id string) { d.CaseID = id }
func (d *CaseDocument) SetPosition(i int) { d.SortOrder = i }
