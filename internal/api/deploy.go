package api

// DeployRequest contains the fields of the deploy form.
type DeployRequest struct {
	ClusterName   string `json:"cluster_name,omitempty" yaml:"cluster_name,omitempty"`
	ModelPath     string `json:"model_path" yaml:"model_path"`
	GPUType       string `json:"gpu_type" yaml:"gpu_type"`
	CPUCount      int    `json:"cpu_count" yaml:"cpu_count"`
	MemoryGB      int    `json:"memory_gb" yaml:"memory_gb"`
	CloudProvider string `json:"cloud_provider" yaml:"cloud_provider"`
	Region        string `json:"region,omitempty" yaml:"region,omitempty"`
	DiskSizeGB    int    `json:"disk_size_gb" yaml:"disk_size_gb"`
	DiskType      string `json:"disk_type" yaml:"disk_type"`
}

// DeployResponse names the cluster the orchestrator accepted.
type DeployResponse struct {
	ClusterName string `json:"cluster_name"`
	Message     string `json:"message"`
}
