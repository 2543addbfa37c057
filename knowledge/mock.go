package knowledge

import (
	"context"
	"fmt"
)

// MockConnector serves deterministic canned answers per domain. Identical
// input yields byte-identical output, which keeps tests and degraded runs
// reproducible. It is the fallback whenever the gateway is missing,
// misconfigured, or failing.
type MockConnector struct{}

// NewMockConnector creates the canned-answer connector.
func NewMockConnector() *MockConnector { return &MockConnector{} }

var mockDomainContent = map[string]string{
	"hpc": "AWS offers purpose-built HPC services: AWS Parallel Computing Service (PCS) for managed Slurm clusters, " +
		"AWS ParallelCluster for self-managed cluster provisioning, Elastic Fabric Adapter (EFA) for low-latency MPI " +
		"networking, and Amazon FSx for Lustre for high-throughput scratch storage. HPC-optimized instance families " +
		"include Hpc7g, Hpc7a, C7gn and C6in.",
	"quantum": "Amazon Braket provides on-demand access to gate-based quantum processors (IonQ, IQM, Rigetti) and " +
		"simulators (SV1, DM1, TN1). Hybrid Jobs run quantum-classical workflows with priority QPU access. The Braket " +
		"SDK integrates with PennyLane for variational algorithms.",
	"genai": "Amazon Bedrock offers foundation models from Anthropic (Claude), Amazon (Nova, Titan), Meta (Llama), " +
		"Mistral and others behind a single API. Bedrock AgentCore provides Runtime for serverless agent hosting, " +
		"Gateway for MCP tool access, and Memory for conversation continuity. Amazon SageMaker covers custom model " +
		"training, and Bedrock Knowledge Bases provide managed RAG.",
	"visual": "Amazon Rekognition analyzes images and video for objects, faces, text and content moderation. " +
		"EC2 GPU instances (P5, G6, G5) accelerate rendering and vision workloads; AWS Batch scales large image " +
		"processing pipelines; Amazon Kinesis Video Streams ingests camera feeds for downstream analysis.",
	"spatial": "Amazon Location Service provides maps, geocoding, routing and geofencing APIs. AWS IoT TwinMaker " +
		"builds digital twins over IoT and asset data. Spatial workloads combine point-cloud storage on S3, " +
		"geospatial analytics on Athena and SageMaker geospatial capabilities.",
	"iot": "AWS IoT Core connects devices over MQTT with fleet-scale device management. AWS IoT SiteWise collects " +
		"and models industrial equipment data with asset hierarchies. AWS IoT Greengrass runs local compute and ML " +
		"inference at the edge, and Amazon Kinesis Video Streams handles camera and sensor streams.",
	"partners": "The AWS Partner Network (APN) spans ISV, consulting and hardware partners with validated " +
		"competencies for advanced computing. AWS Marketplace delivers partner solutions as AMIs, containers and " +
		"SaaS listings with consolidated billing and private offers.",
}

// Query returns the canned answer for the domain, echoing the query so the
// expert sees what was looked up. Unknown domains get a generic notice.
func (c *MockConnector) Query(_ context.Context, domain, query string) (Answer, error) {
	content, ok := mockDomainContent[domain]
	if !ok {
		content = fmt.Sprintf("No knowledge base is registered for domain %q.", domain)
	}

	return Answer{
		Description: fmt.Sprintf("Mock knowledge base result for domain %q", domain),
		Content:     fmt.Sprintf("[%s knowledge base] Query: %s\n\n%s", domain, query, content),
	}, nil
}

// Close is a no-op; the mock holds no resources.
func (c *MockConnector) Close() error { return nil }
