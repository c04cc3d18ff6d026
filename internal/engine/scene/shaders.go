package scene

// Shader sources for the PBR model pass and the skybox background.

const pbrVertexShader = `#version 410 core
layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec2 aTexCoord;
layout (location = 3) in vec3 aTangent;
layout (location = 4) in vec3 aBitangent;
layout (location = 5) in uvec4 aJoints;
layout (location = 6) in vec4 aWeights;

uniform mat4 uModel;
uniform mat4 uView;
uniform mat4 uProjection;

out vec3 vWorldPos;
out vec3 vNormal;
out vec2 vTexCoord;
out mat3 vTBN;

void main() {
    vec4 worldPos = uModel * vec4(aPos, 1.0);
    vWorldPos = worldPos.xyz;
    vTexCoord = aTexCoord;

    mat3 normalMat = mat3(transpose(inverse(uModel)));
    vec3 N = normalize(normalMat * aNormal);
    vec3 T = normalMat * aTangent;
    vec3 B = normalMat * aBitangent;
    if (dot(T, T) > 0.0) {
        T = normalize(T);
        B = normalize(B);
    }
    vNormal = N;
    vTBN = mat3(T, B, N);

    gl_Position = uProjection * uView * worldPos;
}
`

const pbrFragmentShader = `#version 410 core
in vec3 vWorldPos;
in vec3 vNormal;
in vec2 vTexCoord;
in mat3 vTBN;

out vec4 FragColor;

uniform sampler2D uBaseColorMap;
uniform sampler2D uNormalMap;
uniform sampler2D uMetallicRoughnessMap;
uniform sampler2D uHeightMap;

uniform bool uHasBaseColor;
uniform bool uHasNormalMap;
uniform bool uHasMetallicRoughness;
uniform bool uHasHeightMap;

uniform vec4 uBaseColorFactor;
uniform float uMetallic;
uniform float uRoughness;

uniform vec4 uBaseColorUV;
uniform float uBaseColorUVRot;
uniform vec4 uNormalUV;
uniform float uNormalUVRot;
uniform vec4 uMetallicRoughnessUV;
uniform float uMetallicRoughnessUVRot;

uniform samplerCube uIrradianceMap;
uniform samplerCube uPrefilteredMap;
uniform sampler2D uBrdfLUT;
uniform bool uHasIBL;
uniform float uPrefilterMaxMip;

uniform vec3 uViewPos;
uniform vec3 uLightDir;
uniform vec3 uLightColor;

const float PI = 3.14159265359;

vec2 applyUV(vec2 uv, vec4 t, float rot) {
    vec2 s = uv * t.zw;
    float c = cos(rot);
    float sn = sin(rot);
    vec2 r = vec2(c * s.x + sn * s.y, -sn * s.x + c * s.y);
    return r + t.xy;
}

float distributionGGX(vec3 N, vec3 H, float roughness) {
    float a = roughness * roughness;
    float a2 = a * a;
    float NdotH = max(dot(N, H), 0.0);
    float denom = NdotH * NdotH * (a2 - 1.0) + 1.0;
    return a2 / (PI * denom * denom);
}

float geometrySchlickGGX(float NdotV, float roughness) {
    float r = roughness + 1.0;
    float k = (r * r) / 8.0;
    return NdotV / (NdotV * (1.0 - k) + k);
}

float geometrySmith(vec3 N, vec3 V, vec3 L, float roughness) {
    return geometrySchlickGGX(max(dot(N, V), 0.0), roughness) *
           geometrySchlickGGX(max(dot(N, L), 0.0), roughness);
}

vec3 fresnelSchlick(float cosTheta, vec3 F0) {
    return F0 + (1.0 - F0) * pow(clamp(1.0 - cosTheta, 0.0, 1.0), 5.0);
}

vec3 fresnelSchlickRoughness(float cosTheta, vec3 F0, float roughness) {
    return F0 + (max(vec3(1.0 - roughness), F0) - F0) * pow(clamp(1.0 - cosTheta, 0.0, 1.0), 5.0);
}

void main() {
    vec4 baseColor = uBaseColorFactor;
    if (uHasBaseColor) {
        vec2 uv = applyUV(vTexCoord, uBaseColorUV, uBaseColorUVRot);
        baseColor *= texture(uBaseColorMap, uv);
    }
    vec3 albedo = baseColor.rgb;
    float alpha = baseColor.a;

    float metallic = uMetallic;
    float roughness = uRoughness;
    if (uHasMetallicRoughness) {
        vec2 uv = applyUV(vTexCoord, uMetallicRoughnessUV, uMetallicRoughnessUVRot);
        vec3 mr = texture(uMetallicRoughnessMap, uv).rgb;
        metallic *= mr.b;
        roughness *= mr.g;
    }
    roughness = clamp(roughness, 0.04, 1.0);

    vec3 N = normalize(vNormal);
    if (uHasNormalMap) {
        vec2 uv = applyUV(vTexCoord, uNormalUV, uNormalUVRot);
        vec3 tn = texture(uNormalMap, uv).rgb * 2.0 - 1.0;
        N = normalize(vTBN * tn);
    }

    float occlusion = 1.0;
    if (uHasHeightMap) {
        vec2 uv = applyUV(vTexCoord, uBaseColorUV, uBaseColorUVRot);
        occlusion = texture(uHeightMap, uv).r;
    }

    vec3 V = normalize(uViewPos - vWorldPos);
    vec3 F0 = mix(vec3(0.04), albedo, metallic);

    // One directional light matching the sky sun.
    vec3 L = normalize(uLightDir);
    vec3 H = normalize(V + L);
    float NdotL = max(dot(N, L), 0.0);

    float D = distributionGGX(N, H, roughness);
    float G = geometrySmith(N, V, L, roughness);
    vec3 F = fresnelSchlick(max(dot(H, V), 0.0), F0);

    vec3 specular = (D * G * F) / max(4.0 * max(dot(N, V), 0.0) * NdotL, 0.0001);
    vec3 kD = (vec3(1.0) - F) * (1.0 - metallic);
    vec3 direct = (kD * albedo / PI + specular) * uLightColor * NdotL;

    vec3 ambient = vec3(0.03) * albedo;
    if (uHasIBL) {
        vec3 F_ibl = fresnelSchlickRoughness(max(dot(N, V), 0.0), F0, roughness);
        vec3 kD_ibl = (vec3(1.0) - F_ibl) * (1.0 - metallic);

        vec3 irradiance = texture(uIrradianceMap, N).rgb;
        vec3 diffuse = irradiance * albedo;

        vec3 R = reflect(-V, N);
        vec3 prefiltered = textureLod(uPrefilteredMap, R, roughness * uPrefilterMaxMip).rgb;
        vec2 brdf = texture(uBrdfLUT, vec2(max(dot(N, V), 0.0), roughness)).rg;
        vec3 spec = prefiltered * (F_ibl * brdf.x + brdf.y);

        ambient = kD_ibl * diffuse + spec;
    }
    ambient *= occlusion;

    vec3 color = ambient + direct;

    // Reinhard tonemap then gamma.
    color = color / (color + vec3(1.0));
    color = pow(color, vec3(1.0 / 2.2));

    FragColor = vec4(color, alpha);
}
`

const skyboxVertexShader = `#version 410 core
layout (location = 0) in vec3 aPos;

uniform mat4 uProjection;
uniform mat4 uView;

out vec3 vDir;

void main() {
    vDir = aPos;
    // Drop the translation so the box follows the viewer.
    mat4 rotView = mat4(mat3(uView));
    vec4 pos = uProjection * rotView * vec4(aPos, 1.0);
    gl_Position = pos.xyww;
}
`

const skyboxFragmentShader = `#version 410 core
in vec3 vDir;
out vec4 FragColor;

uniform samplerCube uEnvironmentMap;

void main() {
    vec3 color = texture(uEnvironmentMap, normalize(vDir)).rgb;
    color = color / (color + vec3(1.0));
    color = pow(color, vec3(1.0 / 2.2));
    FragColor = vec4(color, 1.0);
}
`
