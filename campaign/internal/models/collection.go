package models

// LogCollection is an insertion-ordered map of event logs keyed by ID.
// Setting an existing key replaces the value in place.
type LogCollection struct {
	keys []int64
	logs map[int64]*LeadEventLog
}

// NewLogCollection creates an empty collection, optionally seeded with persisted logs.
func NewLogCollection(logs ...*LeadEventLog) *LogCollection {
	c := &LogCollection{logs: make(map[int64]*LeadEventLog, len(logs))}
	for _, log := range logs {
		if id, ok := log.ID(); ok {
			c.Set(id, log)
		}
	}
	return c
}

// Set stores log under id.
func (c *LogCollection) Set(id int64, log *LeadEventLog) {
	if c.logs == nil {
		c.logs = make(map[int64]*LeadEventLog)
	}
	if _, exists := c.logs[id]; !exists {
		c.keys = append(c.keys, id)
	}
	c.logs[id] = log
}

// Get returns the log stored under id.
func (c *LogCollection) Get(id int64) (*LeadEventLog, bool) {
	log, ok := c.logs[id]
	return log, ok
}

// Remove deletes the log stored under id.
func (c *LogCollection) Remove(id int64) {
	if _, exists := c.logs[id]; !exists {
		return
	}
	delete(c.logs, id)
	for i, k := range c.keys {
		if k == id {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of logs.
func (c *LogCollection) Len() int {
	return len(c.keys)
}

// Keys returns the IDs in insertion order.
func (c *LogCollection) Keys() []int64 {
	out := make([]int64, len(c.keys))
	copy(out, c.keys)
	return out
}

// Values returns the logs in insertion order.
func (c *LogCollection) Values() []*LeadEventLog {
	out := make([]*LeadEventLog, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, c.logs[k])
	}
	return out
}

// Clear removes every log.
func (c *LogCollection) Clear() {
	c.keys = nil
	c.logs = make(map[int64]*LeadEventLog)
}

// ContactCollection is an insertion-ordered map of contacts keyed by ID.
type ContactCollection struct {
	keys     []int64
	contacts map[int64]*Contact
}

// NewContactCollection creates a collection from contacts; later duplicates win.
func NewContactCollection(contacts ...*Contact) *ContactCollection {
	c := &ContactCollection{contacts: make(map[int64]*Contact, len(contacts))}
	for _, contact := range contacts {
		if contact == nil {
			continue
		}
		c.Set(contact.ID, contact)
	}
	return c
}

// Set stores contact under id.
func (c *ContactCollection) Set(id int64, contact *Contact) {
	if c.contacts == nil {
		c.contacts = make(map[int64]*Contact)
	}
	if _, exists := c.contacts[id]; !exists {
		c.keys = append(c.keys, id)
	}
	c.contacts[id] = contact
}

// Get returns the contact stored under id.
func (c *ContactCollection) Get(id int64) (*Contact, bool) {
	contact, ok := c.contacts[id]
	return contact, ok
}

// Len returns the number of contacts.
func (c *ContactCollection) Len() int {
	return len(c.keys)
}

// Keys returns the contact IDs in insertion order.
func (c *ContactCollection) Keys() []int64 {
	out := make([]int64, len(c.keys))
	copy(out, c.keys)
	return out
}

// Values returns the contacts in insertion order.
func (c *ContactCollection) Values() []*Contact {
	out := make([]*Contact, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, c.contacts[k])
	}
	return out
}
