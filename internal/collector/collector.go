// Package collector gathers the resource inventory of one AWS account and region.
package collector

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"golang.org/x/sync/errgroup"

	"github.com/chukul/cloudview/internal/resource"
)

// Collector queries every category concurrently. The first failing category fails the
// whole collection.
type Collector struct {
	newClients ClientFactory
	logger     *slog.Logger
}

func New(logger *slog.Logger) *Collector {
	return NewWithFactory(NewClients, logger)
}

func NewWithFactory(factory ClientFactory, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{newClients: factory, logger: logger}
}

// Collect returns the inventory visible to creds.
func (c *Collector) Collect(ctx context.Context, creds resource.Credentials) (*resource.Inventory, error) {
	creds = creds.WithDefaults()
	start := time.Now()

	clients, err := c.newClients(ctx, creds)
	if err != nil {
		return nil, err
	}

	ident, err := clients.STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, err
	}
	account := aws.ToString(ident.Account)

	inv := &resource.Inventory{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		inv.Compute, err = instances(gctx, clients.EC2, c.logger)
		return err
	})
	g.Go(func() (err error) {
		inv.Buckets, err = buckets(gctx, clients.S3)
		return err
	})
	g.Go(func() (err error) {
		inv.Databases, err = databases(gctx, clients.RDS)
		return err
	})
	g.Go(func() (err error) {
		inv.Functions, err = functions(gctx, clients.Lambda)
		return err
	})
	if err := g.Wait(); err != nil {
		c.logger.Warn("collection failed", "account", account, "region", creds.Region, "error", err)
		return nil, err
	}

	c.logger.Info("collected inventory",
		"account", account,
		"region", creds.Region,
		"items", inv.Total(),
		"elapsed", time.Since(start),
	)
	return inv.Normalize(), nil
}

func instances(ctx context.Context, client EC2API, logger *slog.Logger) ([]resource.Instance, error) {
	var raw []ec2types.Instance
	p := ec2.NewDescribeInstancesPaginator(client, &ec2.DescribeInstancesInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range page.Reservations {
			raw = append(raw, r.Instances...)
		}
	}

	names := imageNames(ctx, client, raw, logger)

	out := make([]resource.Instance, 0, len(raw))
	for _, i := range raw {
		imageID := aws.ToString(i.ImageId)
		state := ""
		if i.State != nil {
			state = string(i.State.Name)
		}
		out = append(out, resource.Instance{
			ID:        aws.ToString(i.InstanceId),
			Type:      string(i.InstanceType),
			State:     state,
			PublicIP:  orNA(i.PublicIpAddress),
			PrivateIP: orNA(i.PrivateIpAddress),
			AMIName:   names.get(imageID),
			AMIID:     imageID,
		})
	}
	return out, nil
}

type nameCache struct {
	mu    sync.Mutex
	names map[string]string
}

func (n *nameCache) set(id, name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.names[id] = name
}

func (n *nameCache) get(id string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if name, ok := n.names[id]; ok && name != "" {
		return name
	}
	return resource.NotAvailable
}

// imageNames looks up each distinct AMI once. A lookup failure only loses the name.
func imageNames(ctx context.Context, client EC2API, raw []ec2types.Instance, logger *slog.Logger) *nameCache {
	cache := &nameCache{names: map[string]string{}}
	seen := map[string]bool{}

	var wg sync.WaitGroup
	for _, i := range raw {
		id := aws.ToString(i.ImageId)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := client.DescribeImages(ctx, &ec2.DescribeImagesInput{ImageIds: []string{id}})
			if err != nil {
				logger.Debug("ami lookup failed", "image_id", id, "error", err)
				return
			}
			if len(out.Images) > 0 {
				cache.set(id, aws.ToString(out.Images[0].Name))
			}
		}()
	}
	wg.Wait()
	return cache
}

func buckets(ctx context.Context, client S3API) ([]resource.Bucket, error) {
	out, err := client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, err
	}

	res := make([]resource.Bucket, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		created := ""
		if b.CreationDate != nil {
			created = b.CreationDate.UTC().Format(time.RFC3339)
		}
		res = append(res, resource.Bucket{Name: aws.ToString(b.Name), CreationDate: created})
	}
	return res, nil
}

func databases(ctx context.Context, client RDSAPI) ([]resource.Database, error) {
	var res []resource.Database
	p := rds.NewDescribeDBInstancesPaginator(client, &rds.DescribeDBInstancesInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, db := range page.DBInstances {
			endpoint := resource.NotAvailable
			if db.Endpoint != nil {
				endpoint = orNA(db.Endpoint.Address)
			}
			res = append(res, resource.Database{
				Identifier: aws.ToString(db.DBInstanceIdentifier),
				Engine:     aws.ToString(db.Engine),
				Status:     aws.ToString(db.DBInstanceStatus),
				Endpoint:   endpoint,
			})
		}
	}
	return res, nil
}

func functions(ctx context.Context, client LambdaAPI) ([]resource.Function, error) {
	var res []resource.Function
	p := lambda.NewListFunctionsPaginator(client, &lambda.ListFunctionsInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, fn := range page.Functions {
			res = append(res, resource.Function{
				Name:    aws.ToString(fn.FunctionName),
				Runtime: string(fn.Runtime),
				Memory:  aws.ToInt32(fn.MemorySize),
				Timeout: aws.ToInt32(fn.Timeout),
			})
		}
	}
	return res, nil
}

func orNA(s *string) string {
	if v := aws.ToString(s); v != "" {
		return v
	}
	return resource.NotAvailable
}
