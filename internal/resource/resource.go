// Package resource defines the cloud credentials a user queries with and the inventory
// snapshot returned for them.
package resource

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jellydator/validation"

	apperrors "github.com/chukul/cloudview/internal/errors"
)

// DefaultRegion is used when no region is selected.
const DefaultRegion = "us-east-1"

// NotAvailable fills optional fields the provider did not report.
const NotAvailable = "N/A"

// Credentials is the access key / secret key / region triple used to query the provider.
// It is never persisted.
type Credentials struct {
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Region    string `json:"region"`
}

// ErrUnknownRegion is reported for a region code missing from Regions.
var ErrUnknownRegion = errors.New("unknown region")

// Validate reports a missing key or an unknown region as an ErrInvalidInput.
// An empty region is accepted; WithDefaults fills it.
func (c Credentials) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.AccessKey, validation.Required),
		validation.Field(&c.SecretKey, validation.Required),
		validation.Field(&c.Region, validation.By(knownRegion)),
	)
	return apperrors.Invalid(err)
}

// MissingKeys reports whether the access or secret key is blank.
func (c Credentials) MissingKeys() bool {
	return strings.TrimSpace(c.AccessKey) == "" || strings.TrimSpace(c.SecretKey) == ""
}

func knownRegion(value any) error {
	code, _ := value.(string)
	if code == "" {
		return nil
	}
	if _, ok := LookupRegion(code); !ok {
		return fmt.Errorf("%w %q", ErrUnknownRegion, code)
	}
	return nil
}

// WithDefaults returns a copy with surrounding whitespace trimmed and an empty region replaced.
func (c Credentials) WithDefaults() Credentials {
	c.AccessKey = strings.TrimSpace(c.AccessKey)
	c.SecretKey = strings.TrimSpace(c.SecretKey)
	c.Region = strings.TrimSpace(c.Region)
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	return c
}

// String never prints the secret key.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{AccessKey:%s Region:%s}", MaskKey(c.AccessKey), c.Region)
}

// MaskKey keeps the last four characters of a key.
func MaskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

// Instance is a virtual machine.
type Instance struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	State     string `json:"state"`
	PublicIP  string `json:"public_ip"`
	PrivateIP string `json:"private_ip"`
	AMIName   string `json:"ami_name"`
	AMIID     string `json:"ami_id"`
}

// Running reports whether the instance is in the running state.
func (i Instance) Running() bool { return i.State == "running" }

// Bucket is an object-storage bucket.
type Bucket struct {
	Name         string `json:"name"`
	CreationDate string `json:"creation_date"`
}

// Database is a managed database instance.
type Database struct {
	Identifier string `json:"identifier"`
	Engine     string `json:"engine"`
	Status     string `json:"status"`
	Endpoint   string `json:"endpoint"`
}

// Function is a serverless function.
type Function struct {
	Name    string `json:"name"`
	Runtime string `json:"runtime"`
	Memory  int32  `json:"memory"`
	Timeout int32  `json:"timeout"`
}

// Inventory is the snapshot returned by a single fetch. It is replaced wholesale, never merged.
type Inventory struct {
	Compute   []Instance `json:"ec2"`
	Buckets   []Bucket   `json:"s3"`
	Databases []Database `json:"rds"`
	Functions []Function `json:"lambda"`
}

// Total counts items across all categories.
func (inv *Inventory) Total() int {
	if inv == nil {
		return 0
	}
	return len(inv.Compute) + len(inv.Buckets) + len(inv.Databases) + len(inv.Functions)
}

// Normalize replaces nil lists with empty ones so the JSON form always carries all four keys.
func (inv *Inventory) Normalize() *Inventory {
	if inv.Compute == nil {
		inv.Compute = []Instance{}
	}
	if inv.Buckets == nil {
		inv.Buckets = []Bucket{}
	}
	if inv.Databases == nil {
		inv.Databases = []Database{}
	}
	if inv.Functions == nil {
		inv.Functions = []Function{}
	}
	return inv
}
