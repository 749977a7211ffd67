package api

// InferRequest contains the fields of the inference form.
type InferRequest struct {
	ClusterName string `json:"cluster_name"`
	Prompt      string `json:"prompt"`
}

type InferResponse struct {
	ClusterName string `json:"cluster_name"`
	Output      string `json:"output"`
}

type AddressResponse struct {
	ClusterName string `json:"cluster_name"`
	Address     string `json:"address"`
}
